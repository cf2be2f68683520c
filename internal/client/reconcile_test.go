package client

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/sim"
)

func testReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Threshold:      0.5,
		SmoothFraction: 0.1,
		UpdateInterval: 0.05, // 20Hz broadcast
		Slack:          1.0 / 60.0,
	}
}

func playerAt(x float64) PlayerState {
	return NewPlayerState(sim.State{Position: mgl64.Vec3{x, 0, 0}}, testTuning())
}

func TestSmallDivergenceStaysPredicting(t *testing.T) {
	ent := NewPredictedEntity(playerAt(0.3))
	rec := NewReconciler(ent, testReconcilerConfig())

	rec.OnAuthoritative(playerAt(0.0), 0, 0.05)

	if rec.Phase() != Predicting {
		t.Fatalf("divergence under threshold should stay predicting, phase=%s", rec.Phase())
	}
	// Nudged a fraction toward authoritative, not snapped.
	got := ent.State().Body.Position.X()
	if got >= 0.3 || got <= 0.0 {
		t.Fatalf("expected a partial nudge between 0 and 0.3, got %.4f", got)
	}
}

func TestLargeDivergenceSnapsWithinOneCycle(t *testing.T) {
	ent := NewPredictedEntity(playerAt(3.0))
	rec := NewReconciler(ent, testReconcilerConfig())

	auth := playerAt(0.0)
	rec.OnAuthoritative(auth, 0, 0.05)

	if d := ent.State().DistanceTo(auth); d > 1e-9 {
		t.Fatalf("one reconciliation cycle should equal authoritative state, still off by %v", d)
	}
	if rec.Phase() != Predicting {
		t.Fatalf("machine should return to predicting after the snap, phase=%s", rec.Phase())
	}
}

func TestSnapReplaysUnacknowledgedInputs(t *testing.T) {
	ent := NewPredictedEntity(playerAt(0))
	rec := NewReconciler(ent, testReconcilerConfig())

	dt := 1.0 / 60.0
	for seq := uint32(1); seq <= 10; seq++ {
		ent.ApplyLocal(seq, forward(), dt)
	}

	// The server disagrees wildly but has only applied the first 4 inputs.
	auth := playerAt(10.0)
	rec.OnAuthoritative(auth, 4, 0.05)

	// 6 unacked forward inputs replayed on top of x=10.
	want := 10.0 + 6*5.0*dt
	got := ent.State().Body.Position.X()
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("snap should replay in-flight inputs, want x=%.4f got %.4f", want, got)
	}
}

func TestStaleUpdateForcesCorrection(t *testing.T) {
	cfg := testReconcilerConfig()
	ent := NewPredictedEntity(playerAt(0.2))
	rec := NewReconciler(ent, cfg)

	rec.OnAuthoritative(playerAt(0.0), 0, 0.05)

	// Well past the expected next update: a frame check marks the machine
	// stale, and the eventual update snaps even though the delta is tiny.
	rec.CheckStale(0.05 + cfg.UpdateInterval + cfg.Slack + 0.1)

	auth := playerAt(0.15)
	rec.OnAuthoritative(auth, 0, 0.3)

	if d := ent.State().DistanceTo(auth); d > 1e-9 {
		t.Fatalf("stale update should apply as a hard correction, off by %v", d)
	}
}

func TestFreshUpdatesAreNotStale(t *testing.T) {
	cfg := testReconcilerConfig()
	ent := NewPredictedEntity(playerAt(0.0))
	rec := NewReconciler(ent, cfg)

	rec.OnAuthoritative(playerAt(0.0), 0, 0.05)
	rec.CheckStale(0.05 + cfg.UpdateInterval) // on time, inside slack

	before := ent.State()
	rec.OnAuthoritative(playerAt(0.1), 0, 0.1)

	// Small delta + not stale: no hard snap, only the smoothing nudge.
	got := ent.State().Body.Position.X()
	if got == 0.1 {
		t.Fatalf("on-time small divergence must not hard snap")
	}
	if got <= before.Body.Position.X() {
		t.Fatalf("expected a nudge toward authoritative, got %.4f", got)
	}
}
