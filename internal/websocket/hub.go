package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"realtime-threads/internal/config"
	"realtime-threads/internal/service"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// IdentityResolver maps a handshake credential to a local user.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, credential string) (*service.Identity, error)
}

type Options struct {
	Identity      IdentityResolver
	Messages      MessageStore
	Notifications NotificationStore
	// Optional; defaults to a no-op sink.
	Activity ActivitySink
	// Optional; defaults to an in-memory Registry.
	Registry ConnectionRegistry
	// Optional; defaults to collectors on a private registry.
	Metrics        *Metrics
	Realtime       config.RealtimeConfig
	AllowedOrigins []string
}

// Hub owns the realtime engine: the connection registry, the channel router
// and everything that publishes through them.
type Hub struct {
	identity   IdentityResolver
	registry   ConnectionRegistry
	router     *Router
	presence   *PresenceBroadcaster
	messenger  *Messenger
	dispatcher *Dispatcher
	metrics    *Metrics
	cfg        config.RealtimeConfig
	upgrader   websocket.Upgrader

	// Context for persistence calls made on behalf of connections
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[string]*Client
	closing bool
	wg      sync.WaitGroup
}

func NewHub(opts Options) *Hub {
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	cfg := opts.Realtime
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 8192
	}

	router := NewRouter(metrics)
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		identity:   opts.Identity,
		registry:   registry,
		router:     router,
		presence:   NewPresenceBroadcaster(registry, router, metrics),
		messenger:  NewMessenger(opts.Messages, router, opts.Activity),
		dispatcher: NewDispatcher(opts.Notifications, router, opts.Activity, metrics, cfg.NotifyTimeout),
		metrics:    metrics,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Registry() ConnectionRegistry {
	return h.registry
}

func (h *Hub) Router() *Router {
	return h.router
}

// Notifier is what request handlers call after a reply or like is stored.
func (h *Hub) Notifier() *Dispatcher {
	return h.dispatcher
}

// Shutdown closes every connection, waits for their teardown and then for
// in-flight notifications.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	slog.Info("WebSocket hub shutting down", "connections", len(clients))
	for _, c := range clients {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("wait for connections: %w", ctx.Err())
	}
	h.cancel()

	if werr := h.dispatcher.Wait(ctx); werr != nil && err == nil {
		err = werr
	}
	return err
}

func (h *Hub) track(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.clients[c.ID()] = c
	h.wg.Add(1)
	return true
}

func (h *Hub) untrack(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID())
	h.mu.Unlock()
	h.wg.Done()
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	allowAll := slices.Contains(allowed, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}
