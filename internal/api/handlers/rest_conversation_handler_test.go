package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alphaxx001/bookloop-connect-campus/internal/api/handlers"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/services"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

func newConversationRouter(convSvc *MockConversationService, msgSvc *MockMessageService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewRestConversationHandler(convSvc, msgSvc)
	r := gin.New()
	r.Use(withUser(userID))
	r.GET("/v1/listings/:id/conversation", h.GetListingConversation)
	r.POST("/v1/listings/:id/conversation", h.ResolveListingConversation)
	r.POST("/v1/listings/:id/messages", h.SendFirstMessage)
	r.GET("/v1/conversations", h.ListConversations)
	r.GET("/v1/conversations/:id/messages", h.ListMessages)
	r.POST("/v1/conversations/:id/messages", h.SendMessage)
	r.GET("/v1/messages/suggestions", h.Suggestions)
	return r
}

func TestRestConversationHandler_GetListingConversation_NoneYet(t *testing.T) {
	convSvc := new(MockConversationService)
	convSvc.On("FindConversation", mock.Anything, int64(5), "buyer").Return(nil, mongo.ErrNoDocuments)
	r := newConversationRouter(convSvc, new(MockMessageService), "buyer")

	w := doJSON(r, http.MethodGet, "/v1/listings/5/conversation", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	convSvc.AssertNotCalled(t, "ResolveConversation", mock.Anything, mock.Anything, mock.Anything)
}

func TestRestConversationHandler_GetListingConversation_WithMessages(t *testing.T) {
	conv := &models.Conversation{ID: utils.NewSixID(), ListingID: 5, BuyerID: "buyer", SellerID: "seller"}
	convSvc := new(MockConversationService)
	msgSvc := new(MockMessageService)
	convSvc.On("FindConversation", mock.Anything, int64(5), "buyer").Return(conv, nil)
	msgSvc.On("ListMessages", mock.Anything, conv.ID).Return([]models.Message{{ID: "01A", MessageText: "hi"}}, nil)
	r := newConversationRouter(convSvc, msgSvc, "buyer")

	w := doJSON(r, http.MethodGet, "/v1/listings/5/conversation", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 1)
}

func TestRestConversationHandler_Resolve_SelfConversation(t *testing.T) {
	convSvc := new(MockConversationService)
	convSvc.On("ResolveConversation", mock.Anything, int64(5), "seller").Return(nil, services.ErrSelfConversation)
	r := newConversationRouter(convSvc, new(MockMessageService), "seller")

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/v1/listings/5/conversation", nil).Code)
}

func TestRestConversationHandler_SendFirstMessage(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		msgSvc := new(MockMessageService)
		conv := &models.Conversation{ID: utils.NewSixID(), ListingID: 5, BuyerID: "buyer", SellerID: "seller"}
		msgSvc.On("SendFirstMessage", mock.Anything, int64(5), "buyer", "Is this book still available?").
			Return(conv, &models.Message{ID: "01A", ConversationID: conv.ID, SenderID: "buyer", MessageText: "Is this book still available?"}, nil)
		r := newConversationRouter(new(MockConversationService), msgSvc, "buyer")

		w := doJSON(r, http.MethodPost, "/v1/listings/5/messages", gin.H{"message_text": "Is this book still available?"})

		require.Equal(t, http.StatusCreated, w.Code)
		body := decode(t, w)
		assert.NotNil(t, body["conversation"])
		assert.NotNil(t, body["message"])
	})

	t.Run("whitespace", func(t *testing.T) {
		msgSvc := new(MockMessageService)
		msgSvc.On("SendFirstMessage", mock.Anything, int64(5), "buyer", "   ").Return(nil, nil, services.ErrEmptyMessage)
		r := newConversationRouter(new(MockConversationService), msgSvc, "buyer")

		w := doJSON(r, http.MethodPost, "/v1/listings/5/messages", gin.H{"message_text": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		r := newConversationRouter(new(MockConversationService), new(MockMessageService), "")
		w := doJSON(r, http.MethodPost, "/v1/listings/5/messages", gin.H{"message_text": "hi"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRestConversationHandler_ListMessages_NotParticipant(t *testing.T) {
	conv := &models.Conversation{ID: utils.NewSixID(), ListingID: 5, BuyerID: "buyer", SellerID: "seller"}
	convSvc := new(MockConversationService)
	msgSvc := new(MockMessageService)
	convSvc.On("GetConversation", mock.Anything, conv.ID).Return(conv, nil)
	r := newConversationRouter(convSvc, msgSvc, "intruder")

	w := doJSON(r, http.MethodGet, "/v1/conversations/"+conv.ID.String()+"/messages", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	msgSvc.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything)
}

func TestRestConversationHandler_SendMessage_ErrorMapping(t *testing.T) {
	convID := utils.NewSixID()
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrNotParticipant, http.StatusForbidden},
		{mongo.ErrNoDocuments, http.StatusNotFound},
		{errors.New("timeout"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		msgSvc := new(MockMessageService)
		msgSvc.On("SendMessage", mock.Anything, convID, "buyer", "hello").Return(nil, tc.err)
		r := newConversationRouter(new(MockConversationService), msgSvc, "buyer")

		w := doJSON(r, http.MethodPost, "/v1/conversations/"+convID.String()+"/messages", gin.H{"message_text": "hello"})
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestRestConversationHandler_ListConversations(t *testing.T) {
	convSvc := new(MockConversationService)
	convSvc.On("ListConversationsForUser", mock.Anything, "seller").Return([]models.Conversation{{ListingID: 1}, {ListingID: 2}}, nil)
	r := newConversationRouter(convSvc, new(MockMessageService), "seller")

	w := doJSON(r, http.MethodGet, "/v1/conversations", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)
}

func TestRestConversationHandler_Suggestions(t *testing.T) {
	msgSvc := new(MockMessageService)
	msgSvc.On("Suggestions").Return([]string{"Is this book still available?"})
	r := newConversationRouter(new(MockConversationService), msgSvc, "")

	w := doJSON(r, http.MethodGet, "/v1/messages/suggestions", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"Is this book still available?"}, decode(t, w)["data"])
}
