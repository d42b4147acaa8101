//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

// Session is one live, authenticated client connection as seen by the
// registry and the gateway. Implementations must make SendJSON safe for
// concurrent use and Close idempotent.
type Session interface {
	SendJSON(v any) error
	Close(reason string) error
}

// IRegistry is the shared table of currently reachable authenticated users.
type IRegistry interface {
	Register(userID string, session Session)
	Unregister(userID string, session Session)
	Send(userID string, v any) bool
	Broadcast(v any, excludeUserID string)
	BroadcastToConversation(conversationID string, v any, excludeUserID string)
	Count() int
}
