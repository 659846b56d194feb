package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames queued for the processor before the reader blocks
	inboundBuffer = 32
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// ConnState is the lifecycle state of a connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticating
	StateAuthenticated
	StateActive
	StateClosed
	StateRejected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Client is one live websocket session.
type Client struct {
	id     string
	userID uint
	conn   *websocket.Conn

	send    chan []byte
	inbound chan Envelope

	state atomic.Int32

	// Connection state management
	ctx    context.Context
	cancel context.CancelFunc
	closed int32

	maxMessageSize int64
	wg             sync.WaitGroup
}

func newClient(conn *websocket.Conn, sendBuffer int, maxMessageSize int64) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:             uuid.New().String(),
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		inbound:        make(chan Envelope, inboundBuffer),
		ctx:            ctx,
		cancel:         cancel,
		maxMessageSize: maxMessageSize,
	}
}

func (c *Client) ID() string {
	return c.id
}

// UserID is zero until the handshake succeeds and never changes afterwards.
func (c *Client) UserID() uint {
	return c.userID
}

func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	prev := ConnState(c.state.Swap(int32(s)))
	slog.Debug("Connection state changed", "clientID", c.id, "userID", c.userID, "from", prev, "to", s)
}

// authenticate fixes the owner of the connection. Only the first call wins.
func (c *Client) authenticate(userID uint) bool {
	if !c.state.CompareAndSwap(int32(StateAuthenticating), int32(StateAuthenticated)) {
		return false
	}
	c.userID = userID
	slog.Debug("Connection state changed", "clientID", c.id, "userID", userID, "from", StateAuthenticating, "to", StateAuthenticated)
	return true
}

// isClosed returns true if the client is closed
func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Close marks the client as closed and stops both pumps.
func (c *Client) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		slog.Debug("Client marked as closed", "clientID", c.id, "userID", c.userID)
	}
}

// Send queues an encoded frame. A full buffer means the peer is not keeping
// up, so the connection is closed rather than blocking the publisher.
func (c *Client) Send(data []byte) error {
	if c.isClosed() {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientClosed
	default:
		slog.Warn("Send buffer full, closing client", "clientID", c.id, "userID", c.userID)
		c.Close()
		return ErrSendBufferFull
	}
}

// Inbound yields decoded frames in arrival order. It is closed when the
// reader stops.
func (c *Client) Inbound() <-chan Envelope {
	return c.inbound
}

func (c *Client) start() {
	c.wg.Add(2)
	go c.writePump()
	go c.readPump()
}

// wait blocks until both pumps have returned or timeout elapses.
func (c *Client) wait(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("Timeout waiting for client goroutines", "clientID", c.id, "userID", c.userID, "timeout", timeout)
	}
}

func (c *Client) readPump() {
	defer func() {
		close(c.inbound)
		c.Close()
		c.conn.Close()
		c.wg.Done()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.Warn("WebSocket error", "clientID", c.id, "userID", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.userID, "error", err)
			}
			return
		}

		env, err := DecodeEnvelope(raw)
		if err != nil {
			slog.Debug("Dropping undecodable frame", "clientID", c.id, "userID", c.userID, "error", err)
			continue
		}

		select {
		case c.inbound <- env:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// unblocks ReadMessage when the close originated here
		c.conn.Close()
		c.wg.Done()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("Error writing message", "clientID", c.id, "userID", c.userID, "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("Error sending ping", "clientID", c.id, "userID", c.userID, "error", err)
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
