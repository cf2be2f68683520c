// Package sim holds the deterministic movement rules shared by the server
// tick and the owning client's prediction. Both sides must step identically
// or reconciliation corrects drift that was never real.
package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/protocol"
)

// State is the replicated kinematic state of one entity.
type State struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Yaw      float64
}

// Input is the decoded form of a protocol.InputMessage, minus the transport
// bookkeeping.
type Input struct {
	Movement    mgl64.Vec3
	Jump        bool
	ActionFlags uint16
	AimTarget   mgl64.Vec3
}

// InputFromMessage converts a wire sample into a sim input.
func InputFromMessage(m protocol.InputMessage) Input {
	return Input{
		Movement:    vec3From(m.Movement),
		Jump:        m.Jump,
		ActionFlags: m.ActionFlags,
		AimTarget:   vec3From(m.AimTarget),
	}
}

func vec3From(v [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Vec3To converts back to the wire representation.
func Vec3To(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v.X()), float32(v.Y()), float32(v.Z())}
}

// Tuning is the subset of game config the movement rule needs.
type Tuning struct {
	MoveSpeed float64
	MapSize   float64
}

// Step advances one state by one input over dt seconds. Movement direction
// is renormalized when its magnitude exceeds 1 so a permissive validator
// threshold never translates into extra speed.
func Step(s State, in Input, dt float64, tun Tuning) State {
	dir := in.Movement
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}

	s.Velocity = dir.Mul(tun.MoveSpeed)
	s.Position = s.Position.Add(s.Velocity.Mul(dt))

	if dir.Len() > 1e-9 {
		s.Yaw = math.Atan2(dir.X(), dir.Z())
	}

	if tun.MapSize > 0 {
		s.Position = clampToMap(s.Position, tun.MapSize)
	}
	return s
}

func clampToMap(p mgl64.Vec3, size float64) mgl64.Vec3 {
	for i := 0; i < 3; i += 2 { // clamp X and Z, leave height alone
		if p[i] < 0 {
			p[i] = 0
		}
		if p[i] > size {
			p[i] = size
		}
	}
	return p
}

// Follow advances a camera state toward a point behind its target. The
// approach is an exponential smooth scaled by dt; it slows as it closes and
// never overshoots.
func Follow(cam State, target mgl64.Vec3, dt, stiffness float64) State {
	if dt <= 0 {
		return cam
	}
	t := 1 - math.Exp(-stiffness*dt)
	delta := target.Sub(cam.Position)
	cam.Velocity = delta.Mul(t / dt)
	cam.Position = cam.Position.Add(delta.Mul(t))
	return cam
}
