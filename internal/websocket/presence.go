package websocket

import "sync"

// PresenceBroadcaster pushes the online user set to every connection.
type PresenceBroadcaster struct {
	// serializes snapshot and delivery so clients never see an older set last
	mu       sync.Mutex
	registry ConnectionRegistry
	router   *Router
	metrics  *Metrics
}

func NewPresenceBroadcaster(registry ConnectionRegistry, router *Router, metrics *Metrics) *PresenceBroadcaster {
	return &PresenceBroadcaster{registry: registry, router: router, metrics: metrics}
}

// Broadcast returns the number of connections the snapshot reached.
func (p *PresenceBroadcaster) Broadcast() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := p.registry.OnlineUserIDs()
	p.metrics.OnlineUsers.Set(float64(len(ids)))
	return p.router.Broadcast(EventPresence, PresencePayload{OnlineUserIDs: ids})
}
