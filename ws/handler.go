package ws

import (
	"context"
	goerrors "errors"
	"log/slog"
	"net/http"
	"time"

	"market-chat/auth"
	"market-chat/contract"
	"market-chat/domain/event"
	"market-chat/errors"
	"market-chat/services"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests and runs the per-connection lifecycle:
// handshake, authentication, registration, history replay and the read loop.
type Handler struct {
	upgrader       websocket.Upgrader
	registry       contract.IRegistry
	gateway        services.IChatGateway
	verifier       auth.TokenVerifier
	authTimeout    time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64
	log            *slog.Logger
}

func NewHandler(log *slog.Logger, registry contract.IRegistry,
	gateway services.IChatGateway, verifier auth.TokenVerifier,
	authTimeout, writeTimeout time.Duration, maxMessageSize int64) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Origin policy is enforced by the fronting proxy.
			},
		},
		registry:       registry,
		gateway:        gateway,
		verifier:       verifier,
		authTimeout:    authTimeout,
		writeTimeout:   writeTimeout,
		maxMessageSize: maxMessageSize,
		log:            log,
	}
}

// Register mounts the websocket endpoints. /ws/{conversationId} binds the
// connection to one conversation and replays its history on join.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.handle)
	mux.HandleFunc("GET /ws/{conversationId}", h.handle)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("conversationId")

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "error", err)
		return
	}
	socket.SetReadLimit(h.maxMessageSize)

	conn := NewConnection(socket, h.verifier, h.writeTimeout, h.log)
	conn.StartAuthTimeout(h.authTimeout)
	defer func() {
		_ = conn.Close("connection closed")
	}()

	userID, err := h.awaitAuthentication(r, conn)
	if err != nil {
		// The connection is already closed with a policy-violation status.
		return
	}

	h.registry.Register(userID, conn)
	defer h.registry.Unregister(userID, conn)

	ctx := r.Context()
	if conversationID != "" {
		if err := h.gateway.ReplayHistory(ctx, userID, conn, conversationID); err != nil {
			h.closeOnGatewayError(conn, userID, err)
			return
		}
	}

	h.readLoop(ctx, userID, conversationID, conn)
}

// awaitAuthentication resolves the user identity, either inline from the
// token query parameter (saves one round trip) or from authenticate frames.
// Frames received before authentication are ignored with a warning.
func (h *Handler) awaitAuthentication(r *http.Request, conn *Connection) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return conn.Authenticate(token)
	}

	for {
		data, err := conn.ReceiveMessage()
		if err != nil {
			// Timeout close or the client went away.
			return "", err
		}
		evt, err := event.Parse(data)
		if err != nil {
			h.log.Warn("Dropping unreadable frame during handshake", "error", err)
			continue
		}
		authEvent, ok := evt.(event.Authenticate)
		if !ok {
			h.log.Warn("Received message before authentication")
			continue
		}
		return conn.Authenticate(authEvent.Token)
	}
}

func (h *Handler) readLoop(ctx context.Context, userID, conversationID string, conn *Connection) {
	for {
		data, err := conn.ReceiveMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Read loop ended", "user_id", userID, "error", err)
			}
			return
		}

		evt, err := event.Parse(data)
		if err != nil {
			if goerrors.Is(err, errors.ErrUnknownEventType) {
				_ = conn.SendJSON(event.NewError(errors.ErrUnknownEventType.Error()))
				continue
			}
			// Best-effort events with malformed payloads, or plain garbage:
			// skippable, never fatal.
			h.log.Warn("Dropping malformed frame", "user_id", userID, "error", err)
			continue
		}

		// Chat frames on a conversation-bound endpoint may omit the id.
		if chat, ok := evt.(event.Chat); ok && chat.ConversationID == "" {
			chat.ConversationID = conversationID
			evt = chat
		}

		if err := h.gateway.HandleEvent(ctx, userID, conn, evt); err != nil {
			h.closeOnGatewayError(conn, userID, err)
			return
		}
	}
}

// closeOnGatewayError maps gateway failures to close statuses: authorization
// failures fail closed with a policy violation, anything else is an internal
// error on this connection only.
func (h *Handler) closeOnGatewayError(conn *Connection, userID string, err error) {
	switch {
	case goerrors.Is(err, errors.ErrNotParticipant):
		h.log.Warn("Unauthorized conversation access", "user_id", userID, "error", err)
		_ = conn.CloseWithCode(websocket.ClosePolicyViolation, "unauthorized user")
	case goerrors.Is(err, errors.ErrConversationNotFound):
		_ = conn.CloseWithCode(websocket.ClosePolicyViolation, "conversation not found")
	default:
		h.log.Error("Closing connection after unrecoverable error",
			"user_id", userID, "error", err)
		_ = conn.CloseWithCode(websocket.CloseInternalServerErr, "internal error")
	}
}
