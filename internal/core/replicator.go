package core

import (
	"sync"

	"moba/server/sync-service/internal/protocol"
	"moba/server/sync-service/internal/sim"
)

// SnapshotSink receives authoritative snapshots. The websocket connection
// wrapper implements it; tests implement it with a slice.
type SnapshotSink interface {
	SendSnapshot(snap *protocol.StateSnapshot)
}

// Replicator fans authoritative changes out to subscribed clients. It
// subscribes to each entity's store and only marks the entity dirty; the
// actual send happens on the broadcast cadence, which runs slower than the
// tick to bound bandwidth. A cycle with no dirty entities sends nothing.
type Replicator struct {
	mu     sync.Mutex
	sinks  map[string]SnapshotSink
	dirty  map[EntityID]sim.State
	states map[EntityID]sim.State
	acks   map[EntityID]func() uint32
}

func NewReplicator() *Replicator {
	return &Replicator{
		sinks:  map[string]SnapshotSink{},
		dirty:  map[EntityID]sim.State{},
		states: map[EntityID]sim.State{},
		acks:   map[EntityID]func() uint32{},
	}
}

// Attach wires an entity's store into the replicator. lastSeq reports the
// input ack to stamp on that entity's snapshots. The initial state counts
// as dirty so existing subscribers hear about the spawn on the next cycle.
func (r *Replicator) Attach(id EntityID, store *EntityStateStore, lastSeq func() uint32) {
	initial := store.Get()
	r.mu.Lock()
	r.acks[id] = lastSeq
	r.states[id] = initial
	r.dirty[id] = initial
	r.mu.Unlock()

	store.Subscribe(func(s sim.State) {
		r.mu.Lock()
		r.states[id] = s
		r.dirty[id] = s
		r.mu.Unlock()
	})
}

// Detach stops replicating an entity. Part of despawn teardown.
func (r *Replicator) Detach(id EntityID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dirty, id)
	delete(r.states, id)
	delete(r.acks, id)
}

// Subscribe registers a sink under a session key and primes it with the
// current state of every entity, so a late joiner sees entities that have
// not moved since it connected. Unsubscribe removes the sink.
func (r *Replicator) Subscribe(session string, sink SnapshotSink, serverTime float64) {
	r.mu.Lock()
	r.sinks[session] = sink
	primer := make([]*protocol.StateSnapshot, 0, len(r.states))
	for id, state := range r.states {
		primer = append(primer, r.snapshotLocked(id, state, serverTime))
	}
	r.mu.Unlock()

	for _, snap := range primer {
		sink.SendSnapshot(snap)
	}
}

func (r *Replicator) Unsubscribe(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, session)
}

// Broadcast sends one snapshot per dirty entity to every sink and clears
// the dirty set. Invoked on the broadcast ticker, independent of tick rate.
func (r *Replicator) Broadcast(serverTime float64) {
	r.mu.Lock()
	if len(r.dirty) == 0 {
		r.mu.Unlock()
		return
	}
	snaps := make([]*protocol.StateSnapshot, 0, len(r.dirty))
	for id, state := range r.dirty {
		snaps = append(snaps, r.snapshotLocked(id, state, serverTime))
	}
	sinks := make([]SnapshotSink, 0, len(r.sinks))
	for _, s := range r.sinks {
		sinks = append(sinks, s)
	}
	r.dirty = map[EntityID]sim.State{}
	r.mu.Unlock()

	for _, snap := range snaps {
		for _, sink := range sinks {
			sink.SendSnapshot(snap)
		}
	}
}

// snapshotLocked builds one entity's wire snapshot. Caller holds r.mu.
func (r *Replicator) snapshotLocked(id EntityID, state sim.State, serverTime float64) *protocol.StateSnapshot {
	snap := &protocol.StateSnapshot{
		EntityID:   uint64(id),
		Position:   sim.Vec3To(state.Position),
		Velocity:   sim.Vec3To(state.Velocity),
		Yaw:        float32(state.Yaw),
		ServerTime: serverTime,
	}
	if ack := r.acks[id]; ack != nil {
		snap.LastSequence = ack()
	}
	return snap
}
