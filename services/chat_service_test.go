package services

import (
	"context"
	"log/slog"
	"testing"

	"market-chat/domain"
	"market-chat/domain/event"
	"market-chat/errors"
	"market-chat/mocks"
	"market-chat/moderation"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type gatewayFixture struct {
	gateway       *ChatGateway
	registry      *mocks.MockIRegistry
	messages      *mocks.MockIMessageRepository
	conversations *mocks.MockIConversationRepository
	session       *mocks.MockSession
}

func newGatewayFixture(t *testing.T) gatewayFixture {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	conversations := mocks.NewMockIConversationRepository(ctrl)
	session := mocks.NewMockSession(ctrl)

	moderator, err := moderation.NewModerator([]string{"scam"}, '*', slog.Default())
	require.NoError(t, err)

	gateway := NewChatGateway(slog.Default(), registry, messages, conversations, &moderator)
	return gatewayFixture{
		gateway:       gateway,
		registry:      registry,
		messages:      messages,
		conversations: conversations,
		session:       session,
	}
}

func conversationC1() domain.Conversation {
	return domain.Conversation{
		ID:       "C1",
		ItemID:   "item-1",
		BuyerID:  "A",
		SellerID: "B",
		Status:   domain.StatusInProgress,
	}
}

func TestChatGateway_Chat_Persists_Then_Forwards_To_Counterpart(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.conversations.EXPECT().GetConversation("C1").Return(conversationC1(), nil)

	var stored domain.Message
	store := f.messages.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(m domain.Message) error {
			stored = m
			return nil
		})
	send := f.registry.EXPECT().
		Send("B", gomock.Any()).
		DoAndReturn(func(_ string, v any) bool {
			frame, ok := v.(event.MessageFrame)
			req.True(ok)
			req.Equal("A", frame.From)
			req.Equal("hi", frame.Content)
			return true
		})
	// Persist happens before any forwarding
	gomock.InOrder(store, send)

	err := f.gateway.HandleEvent(context.Background(), "A", f.session,
		event.Chat{ConversationID: "C1", Content: "hi"})

	req.NoError(err)
	req.Equal("C1", stored.ConversationID)
	req.Equal("A", stored.SenderID)
	req.Equal("hi", stored.Content)
	req.False(stored.CreatedAt.IsZero())
}

func TestChatGateway_Chat_Censors_Forbidden_Words(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.conversations.EXPECT().GetConversation("C1").Return(conversationC1(), nil)

	var stored domain.Message
	f.messages.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(m domain.Message) error {
			stored = m
			return nil
		})
	f.registry.EXPECT().Send("B", gomock.Any()).Return(true)

	err := f.gateway.HandleEvent(context.Background(), "A", f.session,
		event.Chat{ConversationID: "C1", Content: "this is a scam"})

	req.NoError(err)
	req.Equal("this is a ****", stored.Content)
}

func TestChatGateway_Chat_Empty_Content_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	// The sender gets an error frame, nothing is persisted or forwarded
	f.session.EXPECT().
		SendJSON(gomock.Any()).
		DoAndReturn(func(v any) error {
			frame, ok := v.(event.ErrorFrame)
			req.True(ok)
			req.Equal("error", frame.Type)
			return nil
		})

	err := f.gateway.HandleEvent(context.Background(), "A", f.session,
		event.Chat{ConversationID: "C1", Content: "   "})
	req.NoError(err)
}

func TestChatGateway_Chat_From_Non_Participant_Fails_Closed(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.conversations.EXPECT().GetConversation("C1").Return(conversationC1(), nil)
	// No StoreMessage, no Send: the event must not reach persistence

	err := f.gateway.HandleEvent(context.Background(), "C", f.session,
		event.Chat{ConversationID: "C1", Content: "let me in"})

	req.ErrorIs(err, errors.ErrNotParticipant)
}

func TestChatGateway_Chat_Persistence_Failure_Stays_Open(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.conversations.EXPECT().GetConversation("C1").Return(conversationC1(), nil)
	f.messages.EXPECT().StoreMessage(gomock.Any()).Return(context.DeadlineExceeded)
	// The sender is informed with an error frame, the recipient gets nothing
	f.session.EXPECT().
		SendJSON(gomock.Any()).
		DoAndReturn(func(v any) error {
			_, ok := v.(event.ErrorFrame)
			req.True(ok)
			return nil
		})

	err := f.gateway.HandleEvent(context.Background(), "A", f.session,
		event.Chat{ConversationID: "C1", Content: "hi"})
	req.NoError(err)
}

func TestChatGateway_Ping_Answers_Pong(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.session.EXPECT().
		SendJSON(event.NewPong()).
		Return(nil)

	req.NoError(f.gateway.HandleEvent(context.Background(), "A", f.session, event.Ping{}))
}

func TestChatGateway_Typing_Broadcasts_Excluding_Sender(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	typing := event.Typing{ConversationID: "C1", UserID: "A", IsTyping: true, UserName: "Alice"}
	f.registry.EXPECT().
		BroadcastToConversation("C1", event.NewTypingIndicator(typing), "A")

	req.NoError(f.gateway.HandleEvent(context.Background(), "A", f.session, typing))
}

func TestChatGateway_ReadReceipt_Broadcasts_Excluding_Sender(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	receipt := event.ReadReceipt{ConversationID: "C1", UserID: "A"}
	f.registry.EXPECT().
		BroadcastToConversation("C1", event.NewReadReceipt(receipt), "A")

	req.NoError(f.gateway.HandleEvent(context.Background(), "A", f.session, receipt))
}

func TestChatGateway_ReplayHistory_Oldest_First(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	history := []domain.Message{
		{ConversationID: "C1", SenderID: "A", Content: "first"},
		{ConversationID: "C1", SenderID: "B", Content: "second"},
	}
	f.conversations.EXPECT().GetConversation("C1").Return(conversationC1(), nil)
	f.messages.EXPECT().GetMessages("C1").Return(history, nil)
	f.session.EXPECT().
		SendJSON(gomock.Any()).
		DoAndReturn(func(v any) error {
			frame, ok := v.(event.PastMessagesFrame)
			req.True(ok)
			req.Equal("past_messages", frame.Type)
			req.Len(frame.Messages, 2)
			req.Equal("first", frame.Messages[0].Content)
			req.Equal("second", frame.Messages[1].Content)
			return nil
		})

	req.NoError(f.gateway.ReplayHistory(context.Background(), "A", f.session, "C1"))
}

func TestChatGateway_ReplayHistory_For_Non_Participant(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.conversations.EXPECT().GetConversation("C1").Return(conversationC1(), nil)

	err := f.gateway.ReplayHistory(context.Background(), "C", f.session, "C1")
	req.ErrorIs(err, errors.ErrNotParticipant)
}

func TestChatGateway_NotifyConversationCreated_Targets_Seller(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	f.registry.EXPECT().
		Send("B", gomock.Any()).
		DoAndReturn(func(_ string, v any) bool {
			frame, ok := v.(event.NotificationFrame)
			req.True(ok)
			req.Equal("notification", frame.Type)
			req.Equal("C1", frame.ConversationID)
			return true
		})

	req.True(f.gateway.NotifyConversationCreated(conversationC1()))
}
