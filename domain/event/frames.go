package event

import (
	"time"

	"market-chat/domain"

	"github.com/samber/lo"
)

// Server-to-client frames. Each frame carries its own type tag so clients
// can dispatch without inspecting the payload shape.

type PongFrame struct {
	Type string `json:"type"`
}

type MessageFrame struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	From           string    `json:"from"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type TypingIndicatorFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
	UserName       string `json:"user_name"`
}

type ReadReceiptFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type MessageRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type PastMessagesFrame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Messages       []MessageRecord `json:"messages"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type NotificationFrame struct {
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	ConversationID string    `json:"conversation_id"`
	ItemID         string    `json:"item_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewPong() PongFrame {
	return PongFrame{Type: "pong"}
}

func NewMessage(m domain.Message) MessageFrame {
	return MessageFrame{
		Type:           "message",
		ConversationID: m.ConversationID,
		From:           m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func NewTypingIndicator(t Typing) TypingIndicatorFrame {
	return TypingIndicatorFrame{
		Type:           "typing_indicator",
		ConversationID: t.ConversationID,
		UserID:         t.UserID,
		IsTyping:       t.IsTyping,
		UserName:       t.UserName,
	}
}

func NewReadReceipt(rr ReadReceipt) ReadReceiptFrame {
	return ReadReceiptFrame{
		Type:           "read_receipt",
		ConversationID: rr.ConversationID,
		UserID:         rr.UserID,
	}
}

// NewPastMessages builds the single replay frame sent on join,
// oldest message first.
func NewPastMessages(conversationID string, messages []domain.Message) PastMessagesFrame {
	return PastMessagesFrame{
		Type:           "past_messages",
		ConversationID: conversationID,
		Messages: lo.Map(messages, func(m domain.Message, _ int) MessageRecord {
			return MessageRecord{
				ID:             m.ID.String(),
				ConversationID: m.ConversationID,
				SenderID:       m.SenderID,
				Content:        m.Content,
				CreatedAt:      m.CreatedAt,
			}
		}),
	}
}

func NewError(message string) ErrorFrame {
	return ErrorFrame{Type: "error", Message: message}
}

func NewConversationCreated(conversationID, itemID string, at time.Time) NotificationFrame {
	return NotificationFrame{
		Type:           "notification",
		Message:        "New conversation started",
		ConversationID: conversationID,
		ItemID:         itemID,
		CreatedAt:      at,
	}
}
