package client

import "log"

// Phase is the reconciliation state machine's current mode.
type Phase int

const (
	Predicting Phase = iota
	Correcting
)

func (p Phase) String() string {
	if p == Correcting {
		return "correcting"
	}
	return "predicting"
}

// ReconcilerConfig tunes the controller. UpdateInterval is how often
// authoritative snapshots are expected (the broadcast cadence); Slack is
// one server tick of tolerance on top before an update counts as stale.
type ReconcilerConfig struct {
	Threshold      float64
	SmoothFraction float64
	UpdateInterval float64
	Slack          float64
}

// Reconciler compares the predicted state against each authoritative
// snapshot and corrects divergence. Small errors are smoothed, large ones
// snap, and a stall forces the next snapshot to be applied as a hard
// correction regardless of how close the prediction looks.
type Reconciler[S State[S]] struct {
	entity *PredictedEntity[S]
	cfg    ReconcilerConfig

	phase        Phase
	lastUpdateAt float64
	hasUpdate    bool
	forceNext    bool
}

func NewReconciler[S State[S]](entity *PredictedEntity[S], cfg ReconcilerConfig) *Reconciler[S] {
	return &Reconciler[S]{entity: entity, cfg: cfg}
}

// Phase returns the machine's current phase. It is Correcting only for the
// duration of a hard snap; it always returns to Predicting before
// OnAuthoritative returns.
func (r *Reconciler[S]) Phase() Phase {
	return r.phase
}

// CheckStale is called once per frame with the client clock. When the next
// snapshot is overdue by more than the slack, the prediction may be
// silently drifting, so the next snapshot — whenever it arrives — is
// applied as a forced correction.
func (r *Reconciler[S]) CheckStale(now float64) {
	if !r.hasUpdate || r.forceNext {
		return
	}
	if now-r.lastUpdateAt > r.cfg.UpdateInterval+r.cfg.Slack {
		r.forceNext = true
	}
}

// OnAuthoritative feeds one authoritative state into the machine. ackSeq is
// the highest input sequence the server applied producing it; everything
// above it is replayed on top before comparing, so round-trip latency does
// not read as divergence.
func (r *Reconciler[S]) OnAuthoritative(authoritative S, ackSeq uint32, now float64) {
	r.entity.Ack(ackSeq)
	replayed := r.entity.ReplayFrom(authoritative)

	forced := r.forceNext
	r.forceNext = false
	r.hasUpdate = true
	r.lastUpdateAt = now

	delta := r.entity.State().DistanceTo(replayed)
	if !forced && delta <= r.cfg.Threshold {
		// Close enough: stay predicting, nudge a small fraction toward
		// the authoritative answer instead of snapping.
		if r.cfg.SmoothFraction > 0 {
			r.entity.SetState(r.entity.State().LerpTo(replayed, r.cfg.SmoothFraction))
		}
		return
	}

	if forced {
		log.Printf("reconcile: stale update, forcing correction (delta=%.3f)", delta)
	}
	r.phase = Correcting
	r.entity.SetState(replayed)
	r.phase = Predicting
}
