package websocket

import (
	"slices"
	"sync"
)

// ConnectionRegistry tracks which users currently hold at least one live,
// authenticated connection.
type ConnectionRegistry interface {
	Add(userID uint, connID string)
	Remove(userID uint, connID string)
	IsOnline(userID uint) bool
	OnlineUserIDs() []uint
}

// Registry is the in-memory ConnectionRegistry. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	users map[uint]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[uint]map[string]struct{})}
}

// Add records connID for userID. Adding a known pair is a no-op.
func (r *Registry) Add(userID uint, connID string) {
	if userID == 0 || connID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		r.users[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Remove forgets connID. The user entry goes away with its last connection.
func (r *Registry) Remove(userID uint, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.users, userID)
	}
}

func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// OnlineUserIDs returns a sorted snapshot.
func (r *Registry) OnlineUserIDs() []uint {
	r.mu.RLock()
	ids := make([]uint, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// ConnectionCount returns how many live connections userID holds.
func (r *Registry) ConnectionCount(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}
