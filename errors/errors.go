package errors

import "fmt"

var (
	ErrInvalidToken          = fmt.Errorf("invalid token")
	ErrAuthenticationTimeout = fmt.Errorf("authentication timeout")
	ErrNotParticipant        = fmt.Errorf("unauthorized user")
	ErrEmptyContent          = fmt.Errorf("empty content")
	ErrConversationNotFound  = fmt.Errorf("conversation not found")
	ErrSelfConversation      = fmt.Errorf("buyer and seller must differ")
	ErrUnknownEventType      = fmt.Errorf("unknown message type")
	ErrConnectionClosed      = fmt.Errorf("connection closed")
)
