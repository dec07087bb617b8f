package models

import (
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// Conversation is the message thread between one buyer and the seller of one listing.
// (listing_id, buyer_id) is unique.
type Conversation struct {
	ID        utils.SixID `bson:"_id" json:"id"`
	ListingID int64       `bson:"listing_id" json:"listing_id"`
	BuyerID   string      `bson:"buyer_id" json:"buyer_id"`
	SellerID  string      `bson:"seller_id" json:"seller_id"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.BuyerID || userID == c.SellerID)
}

// Counterpart returns the other party of the conversation.
func (c *Conversation) Counterpart(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

// Message is a single chat line. IDs are ULIDs so they sort in creation order.
type Message struct {
	ID             string      `bson:"_id" json:"id"`
	ConversationID utils.SixID `bson:"conversation_id" json:"conversation_id"`
	SenderID       string      `bson:"sender_id" json:"sender_id"`
	MessageText    string      `bson:"message_text" json:"message_text"`
	CreatedAt      time.Time   `bson:"created_at" json:"created_at"`
}
