package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrNotAttached    = errors.New("connection not attached")
	ErrForeignChannel = errors.New("channel belongs to another user")
)

// Subscriber is a connection the router can deliver frames to.
type Subscriber interface {
	ID() string
	UserID() uint
	// Send queues an encoded frame without blocking.
	Send(data []byte) error
}

// NotificationChannel is the channel a user's notifications are published on.
func NotificationChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// ChatChannel is the channel a user's direct messages and typing events are
// published on.
func ChatChannel(userID uint) string {
	return fmt.Sprintf("chat:user:%d", userID)
}

// UserChannels lists every channel a connection owned by userID joins.
func UserChannels(userID uint) []string {
	return []string{NotificationChannel(userID), ChatChannel(userID)}
}

func ownsChannel(userID uint, channel string) bool {
	return channel == NotificationChannel(userID) || channel == ChatChannel(userID)
}

// Router fans events out to the connections subscribed to a channel.
type Router struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	channels    map[string]map[string]struct{}
	memberships map[string]map[string]struct{}

	metrics *Metrics
}

func NewRouter(metrics *Metrics) *Router {
	return &Router{
		subscribers: make(map[string]Subscriber),
		channels:    make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
		metrics:     metrics,
	}
}

// Attach makes sub reachable by Broadcast and eligible to Join channels.
func (r *Router) Attach(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[sub.ID()] = sub
}

// Detach removes the connection and every subscription it still holds.
func (r *Router) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveAllLocked(connID)
	delete(r.subscribers, connID)
}

// Join subscribes an attached connection to one of its owner's channels.
func (r *Router) Join(connID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscribers[connID]
	if !ok {
		return fmt.Errorf("join %s: %w", channel, ErrNotAttached)
	}
	if !ownsChannel(sub.UserID(), channel) {
		return fmt.Errorf("join %s: %w", channel, ErrForeignChannel)
	}

	members, ok := r.channels[channel]
	if !ok {
		members = make(map[string]struct{})
		r.channels[channel] = members
	}
	members[connID] = struct{}{}

	joined, ok := r.memberships[connID]
	if !ok {
		joined = make(map[string]struct{})
		r.memberships[connID] = joined
	}
	joined[channel] = struct{}{}
	return nil
}

// Leave is the inverse of Join. Leaving a channel not joined is a no-op.
func (r *Router) Leave(connID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, channel)
}

// LeaveAll drops every subscription of connID and returns the channels left.
func (r *Router) LeaveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveAllLocked(connID)
}

func (r *Router) leaveAllLocked(connID string) []string {
	joined := r.memberships[connID]
	left := make([]string, 0, len(joined))
	for channel := range joined {
		left = append(left, channel)
	}
	for _, channel := range left {
		r.leaveLocked(connID, channel)
	}
	return left
}

func (r *Router) leaveLocked(connID, channel string) {
	if members, ok := r.channels[channel]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}
	if joined, ok := r.memberships[connID]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(r.memberships, connID)
		}
	}
}

// Members returns the ids of the connections joined to channel.
func (r *Router) Members(channel string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.channels[channel]))
	for id := range r.channels[channel] {
		ids = append(ids, id)
	}
	return ids
}

// Publish delivers event to every connection joined to channel and returns
// the number of connections that accepted the frame.
func (r *Router) Publish(channel string, event EventName, payload interface{}) int {
	return r.PublishMany([]string{channel}, event, payload)
}

// PublishMany delivers event once to every connection joined to any of the
// channels, even when a connection is joined to more than one of them.
func (r *Router) PublishMany(channels []string, event EventName, payload interface{}) int {
	r.mu.RLock()
	seen := make(map[string]struct{})
	targets := make([]Subscriber, 0)
	for _, channel := range channels {
		for id := range r.channels[channel] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if sub, ok := r.subscribers[id]; ok {
				targets = append(targets, sub)
			}
		}
	}
	r.mu.RUnlock()

	return r.deliver(targets, event, payload)
}

// Broadcast delivers event to every attached connection.
func (r *Router) Broadcast(event EventName, payload interface{}) int {
	r.mu.RLock()
	targets := make([]Subscriber, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		targets = append(targets, sub)
	}
	r.mu.RUnlock()

	return r.deliver(targets, event, payload)
}

func (r *Router) deliver(targets []Subscriber, event EventName, payload interface{}) int {
	if len(targets) == 0 {
		return 0
	}

	data, err := EncodeEvent(event, payload)
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return 0
	}

	delivered := 0
	for _, sub := range targets {
		if err := sub.Send(data); err != nil {
			slog.Debug("Dropped delivery", "clientID", sub.ID(), "userID", sub.UserID(), "event", event, "error", err)
			r.metrics.DroppedDelivery.WithLabelValues(event.String()).Inc()
			continue
		}
		delivered++
	}
	r.metrics.Deliveries.WithLabelValues(event.String()).Add(float64(delivered))
	return delivered
}
