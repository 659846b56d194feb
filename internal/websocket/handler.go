package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"realtime-threads/internal/service"

	"github.com/gorilla/websocket"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrHandshakeTimeout  = errors.New("handshake timed out")
	ErrInvalidHandshake  = errors.New("first frame must be a handshake")
	ErrInvalidIdentity   = errors.New("resolved user id is not positive")
	ErrShuttingDown      = errors.New("server is shutting down")
)

const teardownWait = 5 * time.Second

// ServeWS upgrades the request and runs the connection until it closes.
// The credential comes from the token query parameter, the Authorization
// header or a handshake frame, in that order.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket connection", "remoteAddr", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(conn, h.cfg.SendBufferSize, h.cfg.MaxMessageSize)
	c.setState(StateAuthenticating)

	identity, err := h.authenticate(r, c)
	if err != nil {
		h.reject(c, err)
		return
	}
	if !c.authenticate(identity.UserID) {
		h.reject(c, ErrInvalidHandshake)
		return
	}
	if !h.track(c) {
		h.reject(c, ErrShuttingDown)
		return
	}

	h.activate(c)
	slog.Info("New WebSocket connection established", "clientID", c.ID(), "userID", c.UserID())

	go h.serve(c)
}

func (h *Hub) authenticate(r *http.Request, c *Client) (*service.Identity, error) {
	deadline := time.Now().Add(h.cfg.HandshakeTimeout)
	if h.cfg.HandshakeTimeout <= 0 {
		deadline = time.Now().Add(10 * time.Second)
	}
	ctx, cancel := context.WithDeadline(r.Context(), deadline)
	defer cancel()

	credential := credentialFromRequest(r)
	if credential == "" {
		var err error
		if credential, err = readHandshake(c.conn, deadline, h.cfg.MaxMessageSize); err != nil {
			return nil, err
		}
	}

	identity, err := h.identity.ResolveUser(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if identity == nil || identity.UserID == 0 {
		return nil, ErrInvalidIdentity
	}
	return identity, nil
}

func credentialFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// readHandshake reads the first frame, which must carry the credential.
func readHandshake(conn *websocket.Conn, deadline time.Time, limit int64) (string, error) {
	conn.SetReadLimit(limit)
	conn.SetReadDeadline(deadline)

	_, raw, err := conn.ReadMessage()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", ErrHandshakeTimeout
		}
		return "", fmt.Errorf("read handshake: %w", err)
	}

	env, err := DecodeEnvelope(raw)
	if err != nil || env.Event != EventHandshake {
		return "", ErrInvalidHandshake
	}
	var p HandshakePayload
	if err := decodePayload(env, &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}
	if strings.TrimSpace(p.Credential) == "" {
		return "", ErrMissingCredential
	}
	return p.Credential, nil
}

// reject closes a connection that never became Authenticated. Nothing was
// registered for it, so there is nothing to undo.
func (h *Hub) reject(c *Client, reason error) {
	c.setState(StateRejected)
	h.metrics.Handshakes.WithLabelValues(HandshakeRejected).Inc()

	code := websocket.ClosePolicyViolation
	text := "authentication failed"
	if errors.Is(reason, ErrShuttingDown) {
		code, text = websocket.CloseGoingAway, "server shutting down"
	}
	if service.IsAuthError(reason) || errors.Is(reason, ErrMissingCredential) {
		slog.Info("WebSocket handshake rejected", "clientID", c.ID(), "error", reason)
	} else {
		slog.Warn("WebSocket handshake failed", "clientID", c.ID(), "error", reason)
	}

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeWait))
	c.conn.Close()
	c.Close()
}

// activate registers the connection and joins its owner's channels.
func (h *Hub) activate(c *Client) {
	h.registry.Add(c.UserID(), c.ID())
	h.router.Attach(c)
	for _, channel := range UserChannels(c.UserID()) {
		if err := h.router.Join(c.ID(), channel); err != nil {
			slog.Error("Failed to join channel", "clientID", c.ID(), "userID", c.UserID(), "channel", channel, "error", err)
		}
	}
	h.metrics.Handshakes.WithLabelValues(HandshakeAccepted).Inc()
	h.metrics.Connections.Inc()

	c.start()
	c.setState(StateActive)
	h.presence.Broadcast()
}

// serve processes inbound events one at a time until the reader stops, then
// tears the connection down.
func (h *Hub) serve(c *Client) {
	defer h.untrack(c)

	for env := range c.Inbound() {
		h.dispatch(c, env)
	}
	h.teardown(c)
}

func (h *Hub) dispatch(c *Client, env Envelope) {
	outcome := OutcomeHandled
	var err error

	switch env.Event {
	case EventHandshake:
		// identity is fixed once authenticated
		outcome = OutcomeIgnored
	case EventSend:
		var p SendPayload
		if err = decodePayload(env, &p); err != nil {
			outcome = OutcomeMalformed
			break
		}
		err = h.messenger.HandleSend(h.ctx, c, p)
	case EventTyping:
		var p TypingPayload
		if err = decodePayload(env, &p); err != nil {
			outcome = OutcomeMalformed
			break
		}
		err = h.messenger.HandleTyping(c, p)
	default:
		outcome = OutcomeIgnored
	}

	if err != nil && outcome == OutcomeHandled {
		outcome = OutcomeFailed
		if IsValidationError(err) {
			outcome = OutcomeDropped
		}
	}

	switch outcome {
	case OutcomeFailed:
		slog.Error("Failed to handle event", "clientID", c.ID(), "userID", c.UserID(), "event", env.Event, "error", err)
	case OutcomeDropped, OutcomeMalformed:
		slog.Debug("Dropped event", "clientID", c.ID(), "userID", c.UserID(), "event", env.Event, "error", err)
	}

	event := env.Event.String()
	if !env.Event.IsInbound() {
		event = "unknown"
	}
	h.metrics.InboundEvents.WithLabelValues(event, outcome).Inc()
}

func (h *Hub) teardown(c *Client) {
	c.Close()
	left := h.router.LeaveAll(c.ID())
	h.router.Detach(c.ID())
	h.registry.Remove(c.UserID(), c.ID())
	h.metrics.Connections.Dec()
	c.setState(StateClosed)

	h.presence.Broadcast()
	c.wait(teardownWait)
	slog.Info("WebSocket connection closed", "clientID", c.ID(), "userID", c.UserID(), "channels", left)
}
