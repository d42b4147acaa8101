package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"market-chat/contract"
	"market-chat/domain"
	"market-chat/domain/event"
	"market-chat/errors"
	"market-chat/moderation"
	"market-chat/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

type IChatGateway interface {
	HandleEvent(ctx context.Context, senderID string, sess contract.Session, evt event.ClientEvent) error
	ReplayHistory(ctx context.Context, senderID string, sess contract.Session, conversationID string) error
	NotifyConversationCreated(conversation domain.Conversation) bool
}

// ChatGateway is the message-handling state machine behind every
// authenticated connection: it validates the sender, persists chat messages
// and forwards them through the registry.
type ChatGateway struct {
	registry      contract.IRegistry
	messages      repositories.IMessageRepository
	conversations repositories.IConversationRepository
	moderator     *moderation.Moderator
	log           *slog.Logger
}

func NewChatGateway(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository,
	conversations repositories.IConversationRepository,
	moderator *moderation.Moderator) *ChatGateway {
	return &ChatGateway{
		registry:      registry,
		messages:      messages,
		conversations: conversations,
		moderator:     moderator,
		log:           log,
	}
}

// HandleEvent dispatches one inbound event. The switch is exhaustive over
// the ClientEvent variants; adding a variant without a case here is a
// compile-time visible decision, not a silently ignored string tag.
//
// A returned errors.ErrNotParticipant means the caller must close the
// connection (fail closed). Every other failure is scoped to the event:
// the sender gets an error frame and the connection stays open.
func (g *ChatGateway) HandleEvent(ctx context.Context, senderID string, sess contract.Session, evt event.ClientEvent) error {
	switch e := evt.(type) {
	case event.Ping:
		return sess.SendJSON(event.NewPong())
	case event.Authenticate:
		// Already authenticated, a second credential changes nothing.
		g.log.Debug("Ignoring authenticate event on authenticated session", "user_id", senderID)
		return nil
	case event.Chat:
		return g.handleChat(ctx, senderID, sess, e)
	case event.Typing:
		g.registry.BroadcastToConversation(e.ConversationID, event.NewTypingIndicator(e), senderID)
		return nil
	case event.ReadReceipt:
		g.registry.BroadcastToConversation(e.ConversationID, event.NewReadReceipt(e), senderID)
		return nil
	default:
		return sess.SendJSON(event.NewError(errors.ErrUnknownEventType.Error()))
	}
}

// handleChat validates, persists and forwards a chat message.
// The message is persisted before any forwarding, and delivered only to the
// conversation's other participant, never echoed back to the sender.
func (g *ChatGateway) handleChat(_ context.Context, senderID string, sess contract.Session, e event.Chat) error {
	content := strings.TrimSpace(e.Content)
	if content == "" {
		g.log.Warn("Rejecting empty chat message", "user_id", senderID)
		return sess.SendJSON(event.NewError(errors.ErrEmptyContent.Error()))
	}
	if e.ConversationID == "" {
		g.log.Warn("Rejecting chat message without conversation id", "user_id", senderID)
		return sess.SendJSON(event.NewError("missing conversation id"))
	}

	conversation, err := g.conversations.GetConversation(e.ConversationID)
	if err != nil {
		g.log.Warn("Conversation lookup failed", "conversation_id", e.ConversationID, "error", err)
		return sess.SendJSON(event.NewError(errors.ErrConversationNotFound.Error()))
	}
	if !conversation.IsParticipant(senderID) {
		return fmt.Errorf("%w: %s is not part of conversation %s",
			errors.ErrNotParticipant, senderID, conversation.ID)
	}

	sanitized, foundWords := g.moderator.Censor(content)
	if len(foundWords) > 0 {
		g.log.Warn("Censored forbidden words",
			"user_id", senderID,
			"conversation_id", conversation.ID,
			"words", foundWords)
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Content:        sanitized,
		Lang:           whatlanggo.Detect(sanitized).Lang.Iso6391(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := g.messages.StoreMessage(message); err != nil {
		g.log.Error("Message persistence failed",
			"conversation_id", conversation.ID, "error", err)
		return sess.SendJSON(event.NewError("message could not be stored"))
	}

	recipientID, _ := conversation.OtherParticipant(senderID)
	if !g.registry.Send(recipientID, event.NewMessage(message)) {
		// Fire and forget: the sender is not told about an offline recipient.
		g.log.Debug("Recipient not reachable", "user_id", recipientID)
	}
	return nil
}

// ReplayHistory sends the conversation's full message history as a single
// past_messages frame, oldest first, so a reconnecting client can rebuild
// its state without a REST round trip.
func (g *ChatGateway) ReplayHistory(_ context.Context, senderID string, sess contract.Session, conversationID string) error {
	conversation, err := g.conversations.GetConversation(conversationID)
	if err != nil {
		return err
	}
	if !conversation.IsParticipant(senderID) {
		return fmt.Errorf("%w: %s is not part of conversation %s",
			errors.ErrNotParticipant, senderID, conversationID)
	}

	messages, err := g.messages.GetMessages(conversationID)
	if err != nil {
		g.log.Error("History read failed", "conversation_id", conversationID, "error", err)
		return sess.SendJSON(event.NewError("history could not be read"))
	}
	return sess.SendJSON(event.NewPastMessages(conversationID, messages))
}

// NotifyConversationCreated pushes a notification frame to the seller when a
// buyer opens a new conversation on one of their items. Reports whether the
// seller was reachable.
func (g *ChatGateway) NotifyConversationCreated(conversation domain.Conversation) bool {
	frame := event.NewConversationCreated(conversation.ID, conversation.ItemID, conversation.CreatedAt)
	return g.registry.Send(conversation.SellerID, frame)
}
