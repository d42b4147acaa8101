// Package ws carries the WebSocket transport: the per-socket authentication
// state machine and the HTTP handler that feeds authenticated events into
// the chat gateway.
package ws

import (
	"log/slog"
	"sync"
	"time"

	"market-chat/auth"
	"market-chat/errors"

	"github.com/gorilla/websocket"
)

type State int

const (
	PendingAuth State = iota
	Authenticated
	Closed
)

// Connection wraps one socket and its authentication state machine.
// States move PendingAuth -> Authenticated on a valid token, and to the
// terminal Closed state on timeout, invalid token, IO error or explicit
// close. A Closed connection is never reused.
type Connection struct {
	socket   *websocket.Conn
	verifier auth.TokenVerifier
	log      *slog.Logger

	// writeMu serializes writes; gorilla allows a single concurrent writer.
	writeMu      sync.Mutex
	writeTimeout time.Duration

	mu        sync.Mutex
	state     State
	userID    string
	authTimer *time.Timer
}

func NewConnection(socket *websocket.Conn, verifier auth.TokenVerifier,
	writeTimeout time.Duration, log *slog.Logger) *Connection {
	return &Connection{
		socket:       socket,
		verifier:     verifier,
		writeTimeout: writeTimeout,
		log:          log,
		state:        PendingAuth,
	}
}

// StartAuthTimeout arms the single-shot authentication timer. The timer
// callback and a successful Authenticate are mutually exclusive outcomes:
// both take the state mutex and the first one to move the state wins.
func (c *Connection) StartAuthTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != PendingAuth {
		return
	}
	c.authTimer = time.AfterFunc(d, c.onAuthTimeout)
}

func (c *Connection) onAuthTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != PendingAuth {
		return
	}
	c.log.Warn("Authentication timeout, closing connection")
	c.closeLocked(websocket.ClosePolicyViolation, "authentication timeout")
}

// Authenticate verifies the token and moves the connection to Authenticated.
// On failure the socket is closed with a policy-violation status and a
// generic reason that leaks nothing about the internal cause.
func (c *Connection) Authenticate(token string) (string, error) {
	c.mu.Lock()
	switch c.state {
	case Closed:
		c.mu.Unlock()
		return "", errors.ErrConnectionClosed
	case Authenticated:
		userID := c.userID
		c.mu.Unlock()
		return userID, nil
	}
	c.mu.Unlock()

	// Verification may hit crypto; keep it outside the state lock.
	userID, err := c.verifier.Verify(token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		// The timeout fired while the token was being verified.
		return "", errors.ErrConnectionClosed
	}
	if err != nil {
		c.log.Warn("Rejecting connection", "error", err)
		c.closeLocked(websocket.ClosePolicyViolation, "invalid token")
		return "", err
	}
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	c.state = Authenticated
	c.userID = userID
	c.log.Info("Connection authenticated", "user_id", userID)
	return userID, nil
}

// SendJSON writes one JSON frame under a write deadline.
func (c *Connection) SendJSON(v any) error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return errors.ErrConnectionClosed
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.socket.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.socket.WriteJSON(v)
}

// ReceiveMessage blocks until the next frame arrives or the socket dies.
// Closing the connection from another goroutine unblocks it immediately.
func (c *Connection) ReceiveMessage() ([]byte, error) {
	_, data, err := c.socket.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close implements contract.Session with a normal closure status.
func (c *Connection) Close(reason string) error {
	return c.CloseWithCode(websocket.CloseNormalClosure, reason)
}

// CloseWithCode is idempotent; calls after the first are no-ops.
func (c *Connection) CloseWithCode(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(code, reason)
	return nil
}

// closeLocked must be called with c.mu held. It sends a close control frame
// on a best-effort basis, then tears the socket down, which unblocks any
// goroutine stuck in ReceiveMessage.
func (c *Connection) closeLocked(code int, reason string) {
	if c.state == Closed {
		return
	}
	c.state = Closed
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	deadline := time.Now().Add(c.writeTimeout)
	message := websocket.FormatCloseMessage(code, reason)
	_ = c.socket.WriteControl(websocket.CloseMessage, message, deadline)
	_ = c.socket.Close()
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}
