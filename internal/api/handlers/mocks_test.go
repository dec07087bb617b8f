package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// --- Mocks ---

// MockListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) FeaturedListings(ctx context.Context, n int) ([]models.Listing, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) FindListingByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) CreateListing(ctx context.Context, sellerID string, draft models.ListingDraft) (*models.Listing, error) {
	args := m.Called(ctx, sellerID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) AddImageToListing(ctx context.Context, listingID int64, imageURL string) error {
	return m.Called(ctx, listingID, imageURL).Error(0)
}

func (m *MockListingService) InvalidateCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockBookGroupService
type MockBookGroupService struct {
	mock.Mock
}

func (m *MockBookGroupService) ListBookGroups(ctx context.Context) ([]models.BookGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookGroup), args.Error(1)
}

func (m *MockBookGroupService) FindBookGroupByID(ctx context.Context, id utils.SixID) (*models.BookGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookGroup), args.Error(1)
}

// MockConversationService
type MockConversationService struct {
	mock.Mock
}

func (m *MockConversationService) ResolveConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationService) FindConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationService) GetConversation(ctx context.Context, conversationID utils.SixID) (*models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationService) ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

// MockMessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) ListMessages(ctx context.Context, conversationID utils.SixID) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageService) SendMessage(ctx context.Context, conversationID utils.SixID, senderID, text string) (*models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) SendFirstMessage(ctx context.Context, listingID int64, buyerID, text string) (*models.Conversation, *models.Message, error) {
	args := m.Called(ctx, listingID, buyerID, text)
	conv, _ := args.Get(0).(*models.Conversation)
	msg, _ := args.Get(1).(*models.Message)
	return conv, msg, args.Error(2)
}

func (m *MockMessageService) Suggestions() []string {
	return m.Called().Get(0).([]string)
}

// MockStorage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GeneratePresignedPutURL(ctx context.Context, sellerID string, listingID int64, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, sellerID, listingID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.String(1), args.Error(2)
}

func (m *MockStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockStorage) PublicURL(key string) string {
	return m.Called(key).String(0)
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
