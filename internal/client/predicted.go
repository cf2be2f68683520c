// Package client implements the owning-client side of the sync core:
// local prediction of the owned entity, reconciliation against
// authoritative snapshots, and interpolation for observed entities.
package client

import (
	"sync"

	"moba/server/sync-service/internal/sim"
)

// State is the constraint for anything the prediction machinery can drive.
// The player and camera states both satisfy it; the prediction and
// reconciliation logic exists exactly once for both.
type State[S any] interface {
	Step(in sim.Input, dt float64) S
	DistanceTo(other S) float64
	LerpTo(target S, t float64) S
}

type pendingInput struct {
	Sequence uint32
	Input    sim.Input
	DT       float64
}

// PredictedEntity is the client's provisional copy of an owned entity. It
// remembers every input not yet acknowledged by the server so the
// authoritative state can be re-simulated forward when it arrives. The
// whole copy is replaceable at any time; nothing here is ground truth.
type PredictedEntity[S State[S]] struct {
	mu      sync.Mutex
	state   S
	pending []pendingInput
}

func NewPredictedEntity[S State[S]](initial S) *PredictedEntity[S] {
	return &PredictedEntity[S]{state: initial}
}

// ApplyLocal advances the local copy by one input and records it for
// replay. Called once per frame by the prediction engine.
func (p *PredictedEntity[S]) ApplyLocal(seq uint32, in sim.Input, dt float64) S {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = p.state.Step(in, dt)
	p.pending = append(p.pending, pendingInput{Sequence: seq, Input: in, DT: dt})
	return p.state
}

// Ack discards every recorded input at or below seq; the server has applied
// them and they must not be replayed.
func (p *PredictedEntity[S]) Ack(seq uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := 0
	for i < len(p.pending) && p.pending[i].Sequence <= seq {
		i++
	}
	if i > 0 {
		p.pending = append(p.pending[:0], p.pending[i:]...)
	}
}

// ReplayFrom re-simulates the unacknowledged inputs on top of an
// authoritative state, yielding where the client should be if the server
// agrees with everything still in flight.
func (p *PredictedEntity[S]) ReplayFrom(authoritative S) S {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := authoritative
	for _, rec := range p.pending {
		s = s.Step(rec.Input, rec.DT)
	}
	return s
}

// State returns the current predicted state.
func (p *PredictedEntity[S]) State() S {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState replaces the predicted state wholesale (a hard correction).
func (p *PredictedEntity[S]) SetState(s S) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// PendingCount reports how many inputs await server acknowledgement.
func (p *PredictedEntity[S]) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
