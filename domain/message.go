// Package domain contains core concepts of the marketplace messaging system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event within a conversation.
// SenderID is always one of the conversation's two participants.
type Message struct {
	ID             uuid.UUID
	ConversationID string
	SenderID       string
	Content        string
	Lang           string // ISO 639-1 code detected at ingestion, may be empty
	CreatedAt      time.Time
}
