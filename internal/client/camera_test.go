package client

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/sim"
)

func TestCameraRidesTheSameMachinery(t *testing.T) {
	cam := NewPredictedEntity(NewCameraState(sim.State{}, 8.0))
	rec := NewReconciler(cam, testReconcilerConfig())

	// Follow a target; the camera closes on it without overshooting.
	target := mgl64.Vec3{10, 0, 0}
	dt := 1.0 / 60.0
	prev := 0.0
	for seq := uint32(1); seq <= 60; seq++ {
		st := cam.ApplyLocal(seq, sim.Input{AimTarget: target}, dt)
		x := st.Body.Position.X()
		if x < prev || x > 10 {
			t.Fatalf("camera follow must approach monotonically, went %v -> %v", prev, x)
		}
		prev = x
	}
	if prev < 5 {
		t.Fatalf("camera should have closed most of the distance in 1s, at %v", prev)
	}

	// A diverging authoritative camera snaps exactly like the player does.
	auth := NewCameraState(sim.State{Position: mgl64.Vec3{3, 0, 0}}, 8.0)
	rec.OnAuthoritative(auth, 60, 1.0)
	if d := cam.State().DistanceTo(auth); d > 1e-9 {
		t.Fatalf("camera reconciliation should snap, off by %v", d)
	}
}
