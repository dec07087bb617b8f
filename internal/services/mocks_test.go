package services

import (
	"context"
	"sync"

	"github.com/alphaxx001/bookloop-connect-campus/internal/cache"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
	"github.com/stretchr/testify/mock"
)

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) FindProfileByID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type mockBookGroupService struct {
	mock.Mock
}

func (m *mockBookGroupService) ListBookGroups(ctx context.Context) ([]models.BookGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookGroup), args.Error(1)
}

func (m *mockBookGroupService) FindBookGroupByID(ctx context.Context, id utils.SixID) (*models.BookGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookGroup), args.Error(1)
}

type mockListingService struct {
	mock.Mock
}

func (m *mockListingService) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *mockListingService) FeaturedListings(ctx context.Context, n int) ([]models.Listing, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *mockListingService) FindListingByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockListingService) CreateListing(ctx context.Context, sellerID string, draft models.ListingDraft) (*models.Listing, error) {
	args := m.Called(ctx, sellerID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockListingService) AddImageToListing(ctx context.Context, listingID int64, imageURL string) error {
	return m.Called(ctx, listingID, imageURL).Error(0)
}

func (m *mockListingService) InvalidateCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockConversationService struct {
	mock.Mock
}

func (m *mockConversationService) ResolveConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationService) FindConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationService) GetConversation(ctx context.Context, conversationID utils.SixID) (*models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationService) ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyNewMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	return m.Called(ctx, conv, msg).Error(0)
}

// memoryListingCache is an in-process ListingCache with call counters and the same
// generation check as the Redis cache. afterMiss runs once a miss has been reported.
type memoryListingCache struct {
	mu          sync.Mutex
	listings    []models.Listing
	ok          bool
	gen         int64
	getErr      error
	sets        int
	staleSets   int
	invalidates int
	afterMiss   func(c *memoryListingCache)
}

func (c *memoryListingCache) Get(context.Context) ([]models.Listing, int64, bool, error) {
	c.mu.Lock()
	if c.getErr != nil {
		c.mu.Unlock()
		return nil, 0, false, c.getErr
	}
	listings, gen, ok := c.listings, c.gen, c.ok
	hook := c.afterMiss
	c.mu.Unlock()

	if !ok && hook != nil {
		hook(c)
	}
	return listings, gen, ok, nil
}

func (c *memoryListingCache) Set(_ context.Context, gen int64, listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.staleSets++
		return cache.ErrStaleGeneration
	}
	c.listings, c.ok = listings, true
	c.sets++
	return nil
}

func (c *memoryListingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.listings, c.ok = nil, false
	c.invalidates++
	return nil
}
