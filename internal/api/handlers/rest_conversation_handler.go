package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/services"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// RestConversationHandler handles buyer/seller conversations and their messages.
type RestConversationHandler struct {
	conversationService services.IConversationService
	messageService      services.IMessageService
}

func NewRestConversationHandler(conversationService services.IConversationService, messageService services.IMessageService) *RestConversationHandler {
	return &RestConversationHandler{
		conversationService: conversationService,
		messageService:      messageService,
	}
}

type sendMessageRequest struct {
	MessageText string `json:"message_text"`
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
	case errors.Is(err, services.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this conversation"})
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// GetListingConversation handles GET /v1/listings/:id/conversation.
// It only looks up the caller's conversation; 404 means none was started yet.
func (h *RestConversationHandler) GetListingConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	conv, err := h.conversationService.FindConversation(c.Request.Context(), listingID, userID)
	if err != nil {
		respondError(c, err, "No conversation yet", "Failed to load conversation")
		return
	}
	msgs, err := h.messageService.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, err, "No conversation yet", "Failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}

// ResolveListingConversation handles POST /v1/listings/:id/conversation
func (h *RestConversationHandler) ResolveListingConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	conv, err := h.conversationService.ResolveConversation(c.Request.Context(), listingID, userID)
	if err != nil {
		respondError(c, err, "Listing not found", "Failed to start conversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}

// SendFirstMessage handles POST /v1/listings/:id/messages.
// The conversation is created on the first non-empty message.
func (h *RestConversationHandler) SendFirstMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	conv, msg, err := h.messageService.SendFirstMessage(c.Request.Context(), listingID, userID, req.MessageText)
	if err != nil {
		respondError(c, err, "Listing not found", "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv, "message": msg})
}

// ListConversations handles GET /v1/conversations
func (h *RestConversationHandler) ListConversations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	convs, err := h.conversationService.ListConversationsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "No conversations", "Failed to load conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": convs})
}

// participantConversation loads :id and checks the caller takes part in it.
func (h *RestConversationHandler) participantConversation(c *gin.Context, userID string) (*models.Conversation, bool) {
	convID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID format"})
		return nil, false
	}
	conv, err := h.conversationService.GetConversation(c.Request.Context(), convID)
	if err != nil {
		respondError(c, err, "Conversation not found", "Failed to load conversation")
		return nil, false
	}
	if !conv.HasParticipant(userID) {
		respondError(c, services.ErrNotParticipant, "", "")
		return nil, false
	}
	return conv, true
}

// ListMessages handles GET /v1/conversations/:id/messages
func (h *RestConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	conv, ok := h.participantConversation(c, userID)
	if !ok {
		return
	}

	msgs, err := h.messageService.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, err, "Conversation not found", "Failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// SendMessage handles POST /v1/conversations/:id/messages
func (h *RestConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	convID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID format"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	msg, err := h.messageService.SendMessage(c.Request.Context(), convID, userID, req.MessageText)
	if err != nil {
		respondError(c, err, "Conversation not found", "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Suggestions handles GET /v1/messages/suggestions
func (h *RestConversationHandler) Suggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.messageService.Suggestions()})
}
