package core

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/protocol"
	"moba/server/sync-service/pkg/config"
)

// Verdict is the outcome of one validation gate. Validation never fails
// fatally: a rejection carries a reason and the caller drops or clamps.
type Verdict struct {
	OK     bool
	Reason string
}

func accept() Verdict { return Verdict{OK: true} }

func reject(why string) Verdict { return Verdict{Reason: why} }

// ViolationRecord counts rejected submissions for one entity. Consumed by
// the moderation collaborator; this core only ever increments it.
type ViolationRecord struct {
	Count             uint32
	LastViolationTime float64
}

type entityCheatState struct {
	record      ViolationRecord
	windowStart float64
	windowCount int
}

// AntiCheatValidator gates client-submitted inputs and candidate positions
// before they can reach an EntityStateStore. Both gates are pure functions
// of their arguments plus the per-entity counters.
type AntiCheatValidator struct {
	mu  sync.Mutex
	cfg config.GameConfig
	ent map[EntityID]*entityCheatState
}

func NewAntiCheatValidator(cfg config.GameConfig) *AntiCheatValidator {
	return &AntiCheatValidator{
		cfg: cfg,
		ent: map[EntityID]*entityCheatState{},
	}
}

// Track registers an entity; Forget drops its counters. Forget is part of
// entity teardown so a despawned entity cannot keep accruing state.
func (v *AntiCheatValidator) Track(id EntityID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.ent[id]; !ok {
		v.ent[id] = &entityCheatState{}
	}
}

func (v *AntiCheatValidator) Forget(id EntityID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.ent, id)
}

// ValidateInput checks a raw input sample: movement magnitude (direction
// vectors allow float slop, not magnitude abuse) and the action-flag rate
// limit over a rolling window with a reset-on-expiry counter.
func (v *AntiCheatValidator) ValidateInput(id EntityID, in protocol.InputMessage, now float64) Verdict {
	v.mu.Lock()
	defer v.mu.Unlock()

	st, ok := v.ent[id]
	if !ok {
		return reject("unknown entity")
	}

	mv := mgl64.Vec3{float64(in.Movement[0]), float64(in.Movement[1]), float64(in.Movement[2])}
	if mv.Len() > v.cfg.MaxInputMagnitude {
		return v.flag(st, now, "movement magnitude exceeds limit")
	}

	if in.ActionFlags != 0 {
		if now-st.windowStart >= v.cfg.ActionWindowSeconds {
			st.windowStart = now
			st.windowCount = 0
		}
		if st.windowCount >= v.cfg.MaxActionsPerWindow {
			return v.flag(st, now, "action rate limit exceeded")
		}
		st.windowCount++
	}
	return accept()
}

// ValidatePosition checks a candidate position against the last committed
// one. The speed gate scales with dt; the teleport gate does not, so a
// single-frame discontinuity is caught even when dt is large.
func (v *AntiCheatValidator) ValidatePosition(id EntityID, candidate, lastValid mgl64.Vec3, dt, now float64) Verdict {
	v.mu.Lock()
	defer v.mu.Unlock()

	st, ok := v.ent[id]
	if !ok {
		return reject("unknown entity")
	}

	dist := candidate.Sub(lastValid).Len()
	if dist > v.cfg.TeleportThreshold {
		return v.flag(st, now, "teleport threshold exceeded")
	}
	if dt > 0 && dist/dt > v.cfg.MaxSpeed {
		return v.flag(st, now, "speed limit exceeded")
	}
	return accept()
}

// FlagExcessInput records a violation for an entity whose queue held more
// samples than one tick's budget allows. The dropped samples never reach
// the other gates, so the room flags the overflow itself.
func (v *AntiCheatValidator) FlagExcessInput(id EntityID, now float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if st, ok := v.ent[id]; ok {
		v.flag(st, now, "input rate exceeds tick budget")
	}
}

// Violations returns a copy of the entity's record.
func (v *AntiCheatValidator) Violations(id EntityID) (ViolationRecord, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	st, ok := v.ent[id]
	if !ok {
		return ViolationRecord{}, false
	}
	return st.record, true
}

func (v *AntiCheatValidator) flag(st *entityCheatState, now float64, why string) Verdict {
	st.record.Count++
	st.record.LastViolationTime = now
	return reject(why)
}
