package client

import (
	"moba/server/sync-service/internal/protocol"
	"moba/server/sync-service/internal/sim"
)

// Predictor is the owning client's forward simulation. Every frame it
// stamps the captured input with the next sequence number, advances the
// local copy immediately, and hands the wire sample to the sender queue.
// The controlling player never waits on the server round trip.
type Predictor[S State[S]] struct {
	entity *PredictedEntity[S]
	sender *InputSender
	seq    uint32
}

func NewPredictor[S State[S]](entity *PredictedEntity[S], sender *InputSender) *Predictor[S] {
	return &Predictor[S]{entity: entity, sender: sender}
}

// Frame processes one frame of local input: advance the prediction and
// queue the sample for the next send cadence. Returns the new predicted
// state.
func (p *Predictor[S]) Frame(in sim.Input, dt, clientTime float64) S {
	p.seq++
	state := p.entity.ApplyLocal(p.seq, in, dt)
	if p.sender != nil {
		p.sender.Capture(protocol.InputMessage{
			Sequence:    p.seq,
			Movement:    sim.Vec3To(in.Movement),
			Jump:        in.Jump,
			ActionFlags: in.ActionFlags,
			AimTarget:   sim.Vec3To(in.AimTarget),
			ClientTime:  clientTime,
		})
	}
	return state
}

// Sequence returns the last sequence number issued.
func (p *Predictor[S]) Sequence() uint32 {
	return p.seq
}
