// Package domain contains core concepts of the marketplace messaging system.
// This file defines Conversation entities and participant invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

type ConversationStatus string

const (
	StatusInProgress ConversationStatus = "in_progress"
	StatusCompleted  ConversationStatus = "completed"
)

// Conversation is a two-party chat thread between the buyer and the seller
// of a marketplace item. Participants are exactly {BuyerID, SellerID} and
// immutable after creation.
type Conversation struct {
	ID        string
	ItemID    string
	BuyerID   string
	SellerID  string
	Status    ConversationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Conversation) IsParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// OtherParticipant returns the counterpart of userID in the conversation.
// The second return value is false when userID is not a participant.
func (c Conversation) OtherParticipant(userID string) (string, bool) {
	switch userID {
	case c.BuyerID:
		return c.SellerID, true
	case c.SellerID:
		return c.BuyerID, true
	default:
		return "", false
	}
}
