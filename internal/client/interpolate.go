package client

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/protocol"
	"moba/server/sync-service/internal/sim"
)

// Interpolator drives a non-owning observer's visual copy of an entity.
// Observers never predict: they ease toward the last received snapshot
// with a dt-scaled factor that is clamped so a single step can never pass
// the target.
type Interpolator struct {
	current sim.State
	target  sim.State
	rate    float64
	primed  bool
}

// NewInterpolator creates an observer copy easing at the given rate
// (fraction of remaining distance per second, roughly).
func NewInterpolator(rate float64) *Interpolator {
	return &Interpolator{rate: rate}
}

// SetTarget ingests an authoritative snapshot. The first snapshot primes
// the copy directly; there is nothing sensible to ease from.
func (i *Interpolator) SetTarget(snap *protocol.StateSnapshot) {
	st := sim.State{
		Position: vec3(snap.Position),
		Velocity: vec3(snap.Velocity),
		Yaw:      float64(snap.Yaw),
	}
	i.target = st
	if !i.primed {
		i.current = st
		i.primed = true
	}
}

// Step advances the visual copy toward the target and returns it. The lerp
// factor is bounded at 1 so elapsed-time spikes cannot overshoot.
func (i *Interpolator) Step(dt float64) sim.State {
	if !i.primed {
		return i.current
	}
	t := i.rate * dt
	if t > 1 {
		t = 1
	}
	i.current.Position = lerpVec(i.current.Position, i.target.Position, t)
	i.current.Velocity = lerpVec(i.current.Velocity, i.target.Velocity, t)
	i.current.Yaw = lerpAngle(i.current.Yaw, i.target.Yaw, t)
	return i.current
}

// Current returns the visual copy without advancing it.
func (i *Interpolator) Current() sim.State {
	return i.current
}

func vec3(v [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func lerpAngle(a, b, t float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d < -math.Pi {
		d += 2 * math.Pi
	}
	return a + d*t
}
