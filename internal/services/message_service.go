package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/db"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageNotifier tells the other party about a new message. Implementations must not block on delivery.
type MessageNotifier interface {
	NotifyNewMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error
}

// IMessageService is the append-only message log of a conversation.
type IMessageService interface {
	ListMessages(ctx context.Context, conversationID utils.SixID) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID utils.SixID, senderID, text string) (*models.Message, error)
	// SendFirstMessage resolves the buyer's conversation lazily and sends text into it.
	SendFirstMessage(ctx context.Context, listingID int64, buyerID, text string) (*models.Conversation, *models.Message, error)
	Suggestions() []string
}

var messageSuggestions = []string{
	"Is this book still available?",
	"Can I see more photos of the book?",
	"What's the condition of the book?",
	"Where can we meet for pickup?",
	"Is the price negotiable?",
}

type messageService struct {
	db            *mongo.Database
	cfg           *config.Config
	conversations IConversationService
	notifier      MessageNotifier
	sendLocks     *utils.KeyedMutex
}

// NewMessageService creates a new MessageService. notifier may be nil.
func NewMessageService(db *mongo.Database, cfg *config.Config, conversations IConversationService, notifier MessageNotifier) IMessageService {
	return &messageService{
		db:            db,
		cfg:           cfg,
		conversations: conversations,
		notifier:      notifier,
		sendLocks:     utils.NewKeyedMutex(),
	}
}

func (s *messageService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg == nil || s.cfg.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// ListMessages returns the conversation's messages oldest first.
func (s *messageService) ListMessages(ctx context.Context, conversationID utils.SixID) ([]models.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(db.CollMessages).Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of %s: %w", conversationID.String(), err)
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

// SendMessage appends text to the conversation. Sends to one conversation are serialised
// in this process, so the stored order matches the call order.
func (s *messageService) SendMessage(ctx context.Context, conversationID utils.SixID, senderID, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg, err := s.appendMessage(ctx, conv, senderID, text)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyNewMessage(ctx, conv, msg); err != nil {
			log.Printf("Warning: failed to queue notification for message %s: %v", msg.ID, err)
		}
	}
	return msg, nil
}

func (s *messageService) appendMessage(ctx context.Context, conv *models.Conversation, senderID, text string) (*models.Message, error) {
	unlock := s.sendLocks.Lock(conv.ID.String())
	defer unlock()

	now := time.Now().UTC().Truncate(time.Millisecond)
	msg := &models.Message{
		ID:             utils.NewMessageID(now),
		ConversationID: conv.ID,
		SenderID:       senderID,
		MessageText:    text,
		CreatedAt:      now,
	}
	if _, err := s.db.Collection(db.CollMessages).InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message in %s: %w", conv.ID.String(), err)
	}
	return msg, nil
}

// SendFirstMessage checks the text before resolving, so a blank first message creates nothing.
func (s *messageService) SendFirstMessage(ctx context.Context, listingID int64, buyerID, text string) (*models.Conversation, *models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyMessage
	}

	conv, err := s.conversations.ResolveConversation(ctx, listingID, buyerID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.SendMessage(ctx, conv.ID, buyerID, text)
	if err != nil {
		return conv, nil, err
	}
	return conv, msg, nil
}

// Suggestions returns the canned first-contact messages.
func (s *messageService) Suggestions() []string {
	out := make([]string, len(messageSuggestions))
	copy(out, messageSuggestions)
	return out
}
