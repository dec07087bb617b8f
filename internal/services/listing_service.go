package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/cache"
	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/db"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
	"github.com/alphaxx001/bookloop-connect-campus/internal/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	// FetchActiveListings returns every active listing, newest first, in one store round trip.
	FetchActiveListings(ctx context.Context) ([]models.Listing, error)
	FeaturedListings(ctx context.Context, n int) ([]models.Listing, error)
	FindListingByID(ctx context.Context, listingID int64) (*models.Listing, error)
	CreateListing(ctx context.Context, sellerID string, draft models.ListingDraft) (*models.Listing, error)
	AddImageToListing(ctx context.Context, listingID int64, imageURL string) error
	InvalidateCache(ctx context.Context) error
}

const listingSequence = "listings"

// errImageSlotTaken signals that a concurrent append won the next display order.
var errImageSlotTaken = errors.New("image slot taken by concurrent update")

// listingService implements IListingService.
type listingService struct {
	db         *mongo.Database
	cfg        *config.Config
	cache      cache.ListingCache
	profiles   IProfileService
	bookGroups IBookGroupService
}

// NewListingService creates a new ListingService.
func NewListingService(db *mongo.Database, cfg *config.Config, listingCache cache.ListingCache, profiles IProfileService, bookGroups IBookGroupService) IListingService {
	if listingCache == nil {
		listingCache = cache.NoopListingCache{}
	}
	return &listingService{db: db, cfg: cfg, cache: listingCache, profiles: profiles, bookGroups: bookGroups}
}

func (s *listingService) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	cached, gen, ok, cacheErr := s.cache.Get(ctx)
	if cacheErr != nil {
		log.Printf("Warning: listing cache read failed, falling back to store: %v", cacheErr)
	} else if ok {
		return cached, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.CollListings).Find(ctx, bson.M{"status": models.ListingStatusActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query active listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode active listings: %w", err)
	}

	// A failed cache read leaves gen unknown, so the result is not cached.
	if cacheErr == nil {
		if err := s.cache.Set(ctx, gen, listings); err != nil && !errors.Is(err, cache.ErrStaleGeneration) {
			log.Printf("Warning: listing cache write failed: %v", err)
		}
	}
	return listings, nil
}

// FeaturedListings returns the first n listings of the base ordering.
func (s *listingService) FeaturedListings(ctx context.Context, n int) ([]models.Listing, error) {
	listings, err := s.FetchActiveListings(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(listings) {
		listings = listings[:n]
	}
	return listings, nil
}

// FindListingByID finds an active listing. Inactive listings are reported as mongo.ErrNoDocuments.
func (s *listingService) FindListingByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	var listing models.Listing
	filter := bson.M{"_id": listingID, "status": models.ListingStatusActive}
	err := s.db.Collection(db.CollListings).FindOne(ctx, filter).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing by ID %d: %w", listingID, err)
	}
	return &listing, nil
}

// CreateListing validates the draft, resolves seller and books and stores an active listing.
// Field problems come back as *ValidationError before anything is written.
func (s *listingService) CreateListing(ctx context.Context, sellerID string, draft models.ListingDraft) (*models.Listing, error) {
	if res := validation.ValidateListing(draft); !res.Valid {
		return nil, &ValidationError{Fields: res.Errors}
	}
	draft = validation.Normalize(draft)
	price, _ := validation.ParsePrice(draft.Price)

	seller := models.Seller{ID: sellerID}
	profile, err := s.profiles.FindProfileByID(ctx, sellerID)
	switch {
	case err == nil:
		seller = profile.Seller()
	case errors.Is(err, mongo.ErrNoDocuments):
		log.Printf("No profile for seller %s, listing without name", sellerID)
	default:
		return nil, fmt.Errorf("failed to load seller profile: %w", err)
	}

	group, err := s.resolveBookGroup(ctx, draft.BookGroup)
	if err != nil {
		return nil, err
	}

	books, err := s.resolveBooks(draft, group)
	if err != nil {
		return nil, err
	}

	id, err := db.NextSequence(ctx, s.db, listingSequence)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	listing := &models.Listing{
		ID:        id,
		Title:     draft.Title,
		Price:     price,
		Condition: models.Condition(draft.Condition),
		IsSet:     draft.ListingType == models.ListingTypeSet,
		Status:    models.ListingStatusActive,
		Seller:    seller,
		BookGroup: group,
		Books:     books,
		Images:    []models.ImageRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if draft.Description != "" {
		listing.Description = &draft.Description
	}

	if _, err := s.db.Collection(db.CollListings).InsertOne(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to insert listing %d for seller %s: %w", id, sellerID, err)
	}

	s.invalidate(ctx)
	return listing, nil
}

func (s *listingService) resolveBookGroup(ctx context.Context, raw string) (*models.BookGroup, error) {
	if raw == "" {
		return nil, nil
	}
	groupID, err := utils.ParseSixID(raw)
	if err != nil {
		return nil, &ValidationError{Fields: validation.FieldErrors{"bookGroup": "Unknown book group"}}
	}
	group, err := s.bookGroups.FindBookGroupByID(ctx, groupID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &ValidationError{Fields: validation.FieldErrors{"bookGroup": "Unknown book group"}}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book group: %w", err)
	}
	return group, nil
}

// resolveBooks maps selected ids onto the group for sets. A single listing describes one book itself.
func (s *listingService) resolveBooks(draft models.ListingDraft, group *models.BookGroup) ([]models.ListingBook, error) {
	if draft.ListingType != models.ListingTypeSet {
		book := models.BookRef{ID: utils.NewSixID(), Title: draft.Title}
		if draft.Author != "" {
			book.Author = &draft.Author
		}
		if draft.CourseCode != "" {
			book.CourseCode = &draft.CourseCode
		}
		return []models.ListingBook{{Book: book}}, nil
	}

	books := make([]models.ListingBook, 0, len(draft.SelectedBooks))
	for _, raw := range draft.SelectedBooks {
		bookID, err := utils.ParseSixID(raw)
		if err != nil {
			return nil, &ValidationError{Fields: validation.FieldErrors{"selectedBooks": fmt.Sprintf("Unknown book %q", raw)}}
		}
		book, ok := group.BookByID(bookID)
		if !ok {
			return nil, &ValidationError{Fields: validation.FieldErrors{"selectedBooks": fmt.Sprintf("Book %q is not part of %s", raw, group.Name)}}
		}
		books = append(books, models.ListingBook{Book: book})
	}
	return books, nil
}

// AddImageToListing appends an image with the next display order. Re-adding a URL is a no-op,
// so a retried image task does not duplicate photos.
func (s *listingService) AddImageToListing(ctx context.Context, listingID int64, imageURL string) error {
	collection := s.db.Collection(db.CollListings)
	maxImages := s.cfg.MaxImagesPerListing
	if maxImages <= 0 {
		maxImages = validation.MaxImagesPerListing
	}

	op := func() error {
		var current struct {
			Images []models.ImageRef `bson:"listing_images"`
		}
		opts := options.FindOne().SetProjection(bson.M{"listing_images": 1})
		if err := collection.FindOne(ctx, bson.M{"_id": listingID}, opts).Decode(&current); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return mongo.ErrNoDocuments
			}
			return fmt.Errorf("db error loading images of listing %d: %w", listingID, err)
		}
		next := 0
		for _, img := range current.Images {
			if img.ImageURL == imageURL {
				return nil
			}
			if img.DisplayOrder >= next {
				next = img.DisplayOrder + 1
			}
		}
		if len(current.Images) >= maxImages {
			return ErrTooManyImages
		}

		// the array-length guard makes a concurrent append fail the match instead of reusing an order
		filter := bson.M{
			"_id": listingID,
			fmt.Sprintf("listing_images.%d", len(current.Images)): bson.M{"$exists": false},
		}
		update := bson.M{
			"$push": bson.M{"listing_images": models.ImageRef{ID: utils.NewSixID(), ImageURL: imageURL, DisplayOrder: next}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		}
		result, err := collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("db error adding image %s to listing %d: %w", imageURL, listingID, err)
		}
		if result.MatchedCount == 0 {
			return errImageSlotTaken
		}
		return nil
	}

	err := db.WithRetries(op, db.DefaultMaxRetries, func(err error) bool { return errors.Is(err, errImageSlotTaken) })
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// InvalidateCache drops the cached active listing set.
func (s *listingService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

func (s *listingService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("Warning: failed to invalidate %s: %v", cache.ActiveListingsKey, err)
	}
}
