package core

import (
	"log"
	"sync"

	"moba/server/sync-service/internal/sim"
)

// EntityStateStore holds the authoritative state of one entity. A single
// writer (the server tick) commits through Set; every reader gets a value
// copy and can never observe a half-written vector.
type EntityStateStore struct {
	mu    sync.RWMutex
	state sim.State
	subs  []func(sim.State)
}

func NewEntityStateStore(initial sim.State) *EntityStateStore {
	return &EntityStateStore{state: initial}
}

// Set commits a new authoritative state. Calls from any role other than
// RoleServer are dropped and logged, not honored: clients hold copies, the
// server owns the truth.
func (s *EntityStateStore) Set(role Role, state sim.State) error {
	if role != RoleServer {
		log.Printf("state store: dropped write from role %s", role)
		return ErrNotAuthoritative
	}

	s.mu.Lock()
	s.state = state
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return nil
}

// Get returns a snapshot copy of the current state.
func (s *EntityStateStore) Get() sim.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a callback invoked once per committed change. The
// replicator uses this to mark entities dirty for the next broadcast.
func (s *EntityStateStore) Subscribe(fn func(sim.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
