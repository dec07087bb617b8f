package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/db"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IConversationService finds and creates buyer/seller threads.
type IConversationService interface {
	// ResolveConversation returns the single conversation for (listingID, buyerID), creating it if needed.
	ResolveConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error)
	// FindConversation only looks up. It returns mongo.ErrNoDocuments when none exists.
	FindConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error)
	GetConversation(ctx context.Context, conversationID utils.SixID) (*models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error)
}

type conversationService struct {
	db       *mongo.Database
	cfg      *config.Config
	listings IListingService
}

// NewConversationService creates a new ConversationService.
func NewConversationService(db *mongo.Database, cfg *config.Config, listings IListingService) IConversationService {
	return &conversationService{db: db, cfg: cfg, listings: listings}
}

func (s *conversationService) FindConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error) {
	var conv models.Conversation
	filter := bson.M{"listing_id": listingID, "buyer_id": buyerID}
	err := s.db.Collection(db.CollConversations).FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding conversation for listing %d: %w", listingID, err)
	}
	return &conv, nil
}

// ResolveConversation relies on the unique (listing_id, buyer_id) index: when a concurrent
// call inserts first, the duplicate key error is answered by re-reading the winner's record.
func (s *conversationService) ResolveConversation(ctx context.Context, listingID int64, buyerID string) (*models.Conversation, error) {
	conv, err := s.FindConversation(ctx, listingID, buyerID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("conversation cannot be established: %w", err)
	}

	listing, err := s.listings.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Seller.ID == buyerID {
		return nil, ErrSelfConversation
	}

	collection := s.db.Collection(db.CollConversations)
	err = db.Try(func() error {
		candidate := &models.Conversation{
			ID:        utils.NewSixID(),
			ListingID: listingID,
			BuyerID:   buyerID,
			SellerID:  listing.Seller.ID,
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
		_, insertErr := collection.InsertOne(ctx, candidate)
		if insertErr == nil {
			conv = candidate
			return nil
		}
		if !db.IsMongoDuplicateKeyError(insertErr) {
			return insertErr
		}
		existing, findErr := s.FindConversation(ctx, listingID, buyerID)
		if findErr == nil {
			conv = existing
			return nil
		}
		if errors.Is(findErr, mongo.ErrNoDocuments) {
			// _id collision rather than a lost race; retry with a new id
			return insertErr
		}
		return findErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation for listing %d: %w", listingID, err)
	}
	return conv, nil
}

func (s *conversationService) GetConversation(ctx context.Context, conversationID utils.SixID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Collection(db.CollConversations).FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding conversation %s: %w", conversationID.String(), err)
	}
	return &conv, nil
}

// ListConversationsForUser returns threads where userID is buyer or seller, newest first.
func (s *conversationService) ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	filter := bson.M{"$or": bson.A{bson.M{"buyer_id": userID}, bson.M{"seller_id": userID}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.CollConversations).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	convs := []models.Conversation{}
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}
