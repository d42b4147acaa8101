package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"market-chat/domain"
	"market-chat/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubSession struct {
	mu       sync.Mutex
	sent     []any
	closed   bool
	reason   string
	failSend bool
}

func (s *stubSession) SendJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend || s.closed {
		return fmt.Errorf("broken pipe")
	}
	s.sent = append(s.sent, v)
	return nil
}

func (s *stubSession) Close(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.reason = reason
	return nil
}

func newRegistryForTest(t *testing.T) (*Registry, *mocks.MockIConversationRepository) {
	ctrl := gomock.NewController(t)
	conversations := mocks.NewMockIConversationRepository(ctrl)
	return NewRegistry(conversations, slog.Default()), conversations
}

func TestRegistry_Register_And_Send(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryForTest(t)
	userID := uuid.NewString()
	session := &stubSession{}

	// Given no user is connected
	req.Zero(registry.Count())

	// When a user registers and receives a message
	registry.Register(userID, session)
	delivered := registry.Send(userID, "hello")

	// Then
	req.True(delivered)
	req.Equal(1, registry.Count())
	req.Len(session.sent, 1)
}

func TestRegistry_Register_Supersedes_Previous_Session(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryForTest(t)
	userID := uuid.NewString()
	oldSession := &stubSession{}
	newSession := &stubSession{}

	// Given a user with a live session
	registry.Register(userID, oldSession)

	// When the same user registers a new session
	registry.Register(userID, newSession)

	// Then the old session is closed, exactly one session remains,
	// and delivery reaches the new session only
	req.True(oldSession.closed)
	req.False(newSession.closed)
	req.Equal(1, registry.Count())

	req.True(registry.Send(userID, "hi"))
	req.Empty(oldSession.sent)
	req.Len(newSession.sent, 1)
}

func TestRegistry_Stale_Unregister_Keeps_Replacement(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryForTest(t)
	userID := uuid.NewString()
	oldSession := &stubSession{}
	newSession := &stubSession{}

	// Given a superseded session
	registry.Register(userID, oldSession)
	registry.Register(userID, newSession)

	// When the superseded connection's deferred cleanup runs
	registry.Unregister(userID, oldSession)

	// Then the replacement session is untouched
	req.Equal(1, registry.Count())
	req.True(registry.Send(userID, "still here"))
	req.Len(newSession.sent, 1)
}

func TestRegistry_Send_To_Unknown_User(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryForTest(t)

	// Sending to a user that never connected reports false, without error
	req.False(registry.Send("nobody", "hello"))
}

func TestRegistry_Send_Failure_Evicts_Session(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryForTest(t)
	userID := uuid.NewString()
	session := &stubSession{failSend: true}

	// Given a registered session with a dead socket
	registry.Register(userID, session)

	// When a send fails
	delivered := registry.Send(userID, "hello")

	// Then the session is evicted and closed
	req.False(delivered)
	req.Zero(registry.Count())
	req.True(session.closed)
}

func TestRegistry_BroadcastToConversation_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry, conversations := newRegistryForTest(t)
	conversationID := uuid.NewString()
	buyer := &stubSession{}
	seller := &stubSession{}
	stranger := &stubSession{}

	conversations.EXPECT().
		GetConversation(conversationID).
		Return(domain.Conversation{ID: conversationID, BuyerID: "buyer-1", SellerID: "seller-1"}, nil)

	registry.Register("buyer-1", buyer)
	registry.Register("seller-1", seller)
	registry.Register("stranger-1", stranger)

	// When the buyer triggers a conversation broadcast
	registry.BroadcastToConversation(conversationID, "typing", "buyer-1")

	// Then only the seller receives it
	req.Empty(buyer.sent)
	req.Len(seller.sent, 1)
	req.Empty(stranger.sent)
}

func TestRegistry_Broadcast_With_Exclusion(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryForTest(t)
	first := &stubSession{}
	second := &stubSession{}

	registry.Register("user-1", first)
	registry.Register("user-2", second)

	registry.Broadcast("announcement", "user-1")

	req.Empty(first.sent)
	req.Len(second.sent, 1)
}
