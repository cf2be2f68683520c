package client

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/sim"
)

func testTuning() sim.Tuning {
	return sim.Tuning{MoveSpeed: 5.0, MapSize: 2000.0}
}

func forward() sim.Input {
	return sim.Input{Movement: mgl64.Vec3{1, 0, 0}}
}

func TestApplyLocalAdvancesImmediately(t *testing.T) {
	ent := NewPredictedEntity(NewPlayerState(sim.State{}, testTuning()))

	dt := 1.0 / 60.0
	for seq := uint32(1); seq <= 30; seq++ {
		ent.ApplyLocal(seq, forward(), dt)
	}

	// 500ms of local prediction at move_speed 5 shows the advance before
	// any server reply exists.
	got := ent.State().Body.Position.X()
	if math.Abs(got-2.5) > 0.01 {
		t.Fatalf("expected predicted x ~= 2.5, got %.4f", got)
	}
	if ent.PendingCount() != 30 {
		t.Fatalf("expected 30 unacknowledged inputs, got %d", ent.PendingCount())
	}
}

func TestAckDiscardsProcessedInputs(t *testing.T) {
	ent := NewPredictedEntity(NewPlayerState(sim.State{}, testTuning()))
	dt := 1.0 / 60.0
	for seq := uint32(1); seq <= 10; seq++ {
		ent.ApplyLocal(seq, forward(), dt)
	}

	ent.Ack(6)
	if ent.PendingCount() != 4 {
		t.Fatalf("expected 4 pending after ack of 6, got %d", ent.PendingCount())
	}
	ent.Ack(6) // repeated ack is harmless
	if ent.PendingCount() != 4 {
		t.Fatalf("repeated ack changed pending count to %d", ent.PendingCount())
	}
}

func TestReplayFromMatchesPrediction(t *testing.T) {
	ent := NewPredictedEntity(NewPlayerState(sim.State{}, testTuning()))
	dt := 1.0 / 60.0
	for seq := uint32(1); seq <= 12; seq++ {
		ent.ApplyLocal(seq, forward(), dt)
	}

	// The server confirms the first 6 inputs and agrees with the client.
	auth := NewPlayerState(sim.State{}, testTuning())
	for i := 0; i < 6; i++ {
		auth = auth.Step(forward(), dt)
	}
	ent.Ack(6)

	replayed := ent.ReplayFrom(auth)
	if d := replayed.DistanceTo(ent.State()); d > 1e-9 {
		t.Fatalf("replay from an agreeing server should reproduce the prediction, diverged by %v", d)
	}
}
