package client

import (
	"moba/server/sync-service/internal/sim"
)

// PlayerState is the player-movement module's predicted state. It carries
// its tuning so the generic machinery can step it without extra context;
// the rule itself is sim.Step, the same one the server applies.
type PlayerState struct {
	Body   sim.State
	Tuning sim.Tuning
}

func NewPlayerState(initial sim.State, tun sim.Tuning) PlayerState {
	return PlayerState{Body: initial, Tuning: tun}
}

func (p PlayerState) Step(in sim.Input, dt float64) PlayerState {
	p.Body = sim.Step(p.Body, in, dt, p.Tuning)
	return p
}

func (p PlayerState) DistanceTo(other PlayerState) float64 {
	return p.Body.Position.Sub(other.Body.Position).Len()
}

func (p PlayerState) LerpTo(target PlayerState, t float64) PlayerState {
	p.Body.Position = lerpVec(p.Body.Position, target.Body.Position, t)
	p.Body.Velocity = lerpVec(p.Body.Velocity, target.Body.Velocity, t)
	p.Body.Yaw = lerpAngle(p.Body.Yaw, target.Body.Yaw, t)
	return p
}
