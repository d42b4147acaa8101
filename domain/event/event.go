// Package event defines the closed set of wire events exchanged with chat
// clients. Inbound frames are decoded into one of the ClientEvent variants so
// that dispatch is a compile-time checked switch instead of a string map.
package event

import (
	"encoding/json"
	"fmt"

	"market-chat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ClientEvent is implemented by every inbound event variant.
type ClientEvent interface {
	isClientEvent()
}

// Ping is a liveness probe. It is never persisted.
type Ping struct{}

// Authenticate carries the credential of a connection that did not
// authenticate through the token query parameter.
type Authenticate struct {
	Token string
}

// Chat is a text message posted into a conversation.
type Chat struct {
	ConversationID string
	Content        string
}

// Typing is a best-effort typing indicator. Loss is acceptable.
type Typing struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
	IsTyping       bool   `json:"is_typing"`
	UserName       string `json:"user_name"`
}

// ReadReceipt signals that a participant has read the conversation.
type ReadReceipt struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
}

func (Ping) isClientEvent()         {}
func (Authenticate) isClientEvent() {}
func (Chat) isClientEvent()         {}
func (Typing) isClientEvent()       {}
func (ReadReceipt) isClientEvent()  {}

// frame is the raw JSON envelope shared by all inbound events.
// Typing indicators are multiplexed on the "message" type through the
// "channel" field, matching the client protocol.
type frame struct {
	Type           string          `json:"type"`
	Channel        string          `json:"channel,omitempty"`
	Token          string          `json:"token,omitempty"`
	Content        string          `json:"content,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Parse decodes a raw frame into exactly one ClientEvent variant.
// Unknown type tags map to errors.ErrUnknownEventType so the caller can
// answer with an error frame while keeping the connection open. Malformed
// payloads of best-effort events (typing, read receipts) return a plain
// error and are meant to be dropped.
func Parse(data []byte) (ClientEvent, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	switch f.Type {
	case "ping":
		return Ping{}, nil
	case "authenticate":
		if f.Token == "" {
			return nil, fmt.Errorf("authenticate frame without token")
		}
		return Authenticate{Token: f.Token}, nil
	case "message":
		if f.Channel == "typing" {
			return parseTyping(f.Data)
		}
		return Chat{ConversationID: f.ConversationID, Content: f.Content}, nil
	case "read_receipt":
		rr := ReadReceipt{ConversationID: f.ConversationID, UserID: f.UserID}
		if f.Data != nil {
			if err := json.Unmarshal(f.Data, &rr); err != nil {
				return nil, fmt.Errorf("decoding read receipt: %w", err)
			}
		}
		if err := validate.Struct(rr); err != nil {
			return nil, fmt.Errorf("read receipt payload: %w", err)
		}
		return rr, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEventType, f.Type)
	}
}

func parseTyping(data json.RawMessage) (ClientEvent, error) {
	var t Typing
	if data == nil {
		return nil, fmt.Errorf("typing frame without data")
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding typing payload: %w", err)
	}
	if err := validate.Struct(t); err != nil {
		return nil, fmt.Errorf("typing payload: %w", err)
	}
	return t, nil
}
