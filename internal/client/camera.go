package client

import (
	"moba/server/sync-service/internal/sim"
)

// CameraState is the camera-follow module's predicted state. The camera is
// a dependent entity: its "input" is the followed point (carried in the
// sample's aim target), and its rule is the smooth follow. It rides the
// same prediction and reconciliation machinery as the player.
type CameraState struct {
	Body      sim.State
	Stiffness float64
}

func NewCameraState(initial sim.State, stiffness float64) CameraState {
	return CameraState{Body: initial, Stiffness: stiffness}
}

func (c CameraState) Step(in sim.Input, dt float64) CameraState {
	c.Body = sim.Follow(c.Body, in.AimTarget, dt, c.Stiffness)
	return c
}

func (c CameraState) DistanceTo(other CameraState) float64 {
	return c.Body.Position.Sub(other.Body.Position).Len()
}

func (c CameraState) LerpTo(target CameraState, t float64) CameraState {
	c.Body.Position = lerpVec(c.Body.Position, target.Body.Position, t)
	c.Body.Velocity = lerpVec(c.Body.Velocity, target.Body.Velocity, t)
	c.Body.Yaw = lerpAngle(c.Body.Yaw, target.Body.Yaw, t)
	return c
}
