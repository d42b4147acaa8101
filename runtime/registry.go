// Package runtime hosts the shared connection registry, the single source
// of truth for "who is currently reachable".
package runtime

import (
	"log/slog"
	"sync"

	"market-chat/contract"
	"market-chat/repositories"
)

// Registry maps a user id to exactly one live session. It is rebuilt empty
// on process restart; nothing here is persisted.
type Registry struct {
	mu            sync.RWMutex
	sessions      map[string]contract.Session
	conversations repositories.IConversationRepository
	log           *slog.Logger
}

func NewRegistry(conversations repositories.IConversationRepository, log *slog.Logger) *Registry {
	return &Registry{
		sessions:      make(map[string]contract.Session),
		conversations: conversations,
		log:           log,
	}
}

// Register installs the session for userID. A user is assumed to run a
// single active session, so any previous session is closed and superseded
// atomically: no interleaving can leave two sessions registered for the
// same user, and the loser is never silently orphaned.
func (r *Registry) Register(userID string, session contract.Session) {
	r.mu.Lock()
	previous, exists := r.sessions[userID]
	r.sessions[userID] = session
	r.mu.Unlock()

	if exists && previous != session {
		r.log.Info("Replacing existing session", "user_id", userID)
		_ = previous.Close("superseded by a newer session")
	}
	r.log.Info("User connected", "user_id", userID)
}

// Unregister removes the entry for userID, but only if session is still the
// installed one. A superseded connection's deferred cleanup must not evict
// the session that replaced it.
func (r *Registry) Unregister(userID string, session contract.Session) {
	r.mu.Lock()
	current, exists := r.sessions[userID]
	if exists && current == session {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if exists && current == session {
		r.log.Info("User disconnected", "user_id", userID)
	}
}

// Send delivers v to userID's session, fire and forget. It reports false
// when the user has no live session or the write fails; a failing session
// is evicted and closed so later sends do not hit a dead socket.
func (r *Registry) Send(userID string, v any) bool {
	r.mu.RLock()
	session, exists := r.sessions[userID]
	r.mu.RUnlock()

	if !exists {
		r.log.Warn("Undeliverable message, user not connected", "user_id", userID)
		return false
	}
	if err := session.SendJSON(v); err != nil {
		r.log.Warn("Evicting dead session", "user_id", userID, "error", err)
		r.Unregister(userID, session)
		_ = session.Close("send failed")
		return false
	}
	return true
}

// Broadcast sends v to every registered user except excludeUserID.
// Reserved for global notifications, not per-conversation delivery.
func (r *Registry) Broadcast(v any, excludeUserID string) {
	r.mu.RLock()
	targets := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		if userID != excludeUserID {
			targets = append(targets, userID)
		}
	}
	r.mu.RUnlock()

	for _, userID := range targets {
		r.Send(userID, v)
	}
}

// BroadcastToConversation resolves the conversation's two participants and
// sends to each except excludeUserID, avoiding the needless delivery to
// unrelated connected users a full broadcast would cause.
func (r *Registry) BroadcastToConversation(conversationID string, v any, excludeUserID string) {
	conversation, err := r.conversations.GetConversation(conversationID)
	if err != nil {
		r.log.Warn("Cannot broadcast, conversation lookup failed",
			"conversation_id", conversationID, "error", err)
		return
	}
	for _, userID := range []string{conversation.BuyerID, conversation.SellerID} {
		if userID != excludeUserID {
			r.Send(userID, v)
		}
	}
}

// Count reports the number of live sessions, for the stats reporter.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
