package wsgateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrConnectionClosed is returned by Enqueue after the connection closed
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned when a target's send queue is saturated
	ErrSendBufferFull = errors.New("send buffer full")
)

// Connection represents one live WebSocket session. The user identifier is
// attached at construction, after the handshake credential has been verified,
// and is immutable afterwards.
type Connection struct {
	ID       string
	UserID   string
	Username string

	sock *websocket.Conn
	send chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu        sync.RWMutex
	lastPong  time.Time
	createdAt time.Time
}

// NewConnection creates a connection owned by the given user
func NewConnection(id string, userID string, username string, sock *websocket.Conn, sendBuffer int) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:        id,
		UserID:    userID,
		Username:  username,
		sock:      sock,
		send:      make(chan []byte, sendBuffer),
		ctx:       ctx,
		cancel:    cancel,
		lastPong:  time.Now(),
		createdAt: time.Now(),
	}
}

// Enqueue queues raw bytes for delivery. It never blocks: a closed connection
// or a saturated buffer is reported to the caller, which decides whether the
// drop matters.
func (c *Connection) Enqueue(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Closed reports whether the connection has been closed
func (c *Connection) Closed() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Done exposes the close signal for the write pump
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Outbound exposes the send queue for the write pump
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

// Close tears the connection down. Safe to call multiple times; only the
// first call has any effect.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.sock != nil {
			c.sock.Close()
		}
	})
}

// UpdateLastPong updates the last pong time
func (c *Connection) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

// LastPong returns the last pong time
func (c *Connection) LastPong() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong
}
