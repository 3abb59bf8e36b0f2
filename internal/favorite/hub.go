package favorite

import (
	"slices"
	"sync"
)

// Resolver returns the live handle behind a registration, or nil once the
// owner is gone. Resolvers must not keep the handle's owner reachable.
type Resolver func() Handle

// Hub is the in-memory registry of favorite handles. It holds resolvers,
// never the handles themselves.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]Resolver
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]Resolver)}
}

// Subscription is one registration with a Hub.
type Subscription struct {
	hub  *Hub
	id   uint64
	once sync.Once
}

// Cancel removes the registration. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}

// Register adds a resolver and returns its subscription.
func (h *Hub) Register(resolve Resolver) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.subs[h.nextID] = resolve
	return &Subscription{hub: h, id: h.nextID}
}

// InvokeAll calls action, synchronously and at most once, on every live
// handle accepted by filter. Handles whose owner is gone are pruned and
// handles cancelled during the call are skipped.
func (h *Hub) InvokeAll(filter func(Handle) bool, action func(Handle)) {
	type live struct {
		id     uint64
		handle Handle
	}

	h.mu.Lock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	handles := make([]live, 0, len(ids))
	for _, id := range ids {
		handle := h.subs[id]()
		if handle == nil {
			delete(h.subs, id)
			continue
		}
		handles = append(handles, live{id: id, handle: handle})
	}
	h.mu.Unlock()

	for _, l := range handles {
		if !h.registered(l.id) {
			continue
		}
		if filter(l.handle) {
			action(l.handle)
		}
	}
}

// Len returns the number of live registrations, pruning dead ones.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, resolve := range h.subs {
		if resolve() == nil {
			delete(h.subs, id)
		}
	}
	return len(h.subs)
}

func (h *Hub) registered(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.subs[id]
	return ok
}
