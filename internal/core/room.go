package core

import (
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"moba/server/sync-service/internal/protocol"
	"moba/server/sync-service/internal/sim"
	"moba/server/sync-service/pkg/config"
)

// inputLagTicks is how many ticks of extra samples an entity may catch up
// beyond one send-cadence batch, covering jitter between the client's send
// timer and the tick that drains it.
const inputLagTicks = 2

// ViolationReporter hands accumulated violation data to the moderation
// collaborator when an entity despawns. Injected at construction; nil means
// no reporting (tests).
type ViolationReporter interface {
	ReportViolations(roomID string, id EntityID, ownerUID int64, rec ViolationRecord)
}

type entitySlot struct {
	entity  NetworkedEntity
	store   *EntityStateStore
	history *HistoryBuffer
	inputs  *InputChannel

	// budget meters how many samples the tick step may apply for this
	// entity. It refills at one sample per tick, so simulated time can
	// never outrun the room clock no matter how many samples arrive.
	budget *rate.Limiter
}

// Room owns the authoritative simulation of one match. Its tick step is the
// single writer of every entity's state store; everyone else reads copies.
type Room struct {
	ID  string
	cfg config.GameConfig

	mu       sync.RWMutex
	entities map[EntityID]*entitySlot

	validator  *AntiCheatValidator
	replicator *Replicator
	reporter   ViolationReporter

	// Tick clock: seconds since the room started, advanced only by Advance.
	clock       float64
	currentTick int64

	stop      chan struct{}
	IsRunning bool

	LastActiveTime int64
	CreatedAt      int64
}

func NewRoom(id string, cfg config.GameConfig, reporter ViolationReporter) *Room {
	now := time.Now().Unix()
	return &Room{
		ID:             id,
		cfg:            cfg,
		entities:       make(map[EntityID]*entitySlot),
		validator:      NewAntiCheatValidator(cfg),
		replicator:     NewReplicator(),
		reporter:       reporter,
		stop:           make(chan struct{}),
		LastActiveTime: now,
		CreatedAt:      now,
	}
}

// Run drives the two cadences: the authoritative tick and the slower
// observer broadcast. It is the room's scheduler; nothing else advances the
// simulation.
func (r *Room) Run() {
	r.mu.Lock()
	r.IsRunning = true
	r.mu.Unlock()

	tickDt := 1.0 / float64(r.cfg.TickRate)
	tick := time.NewTicker(time.Second / time.Duration(r.cfg.TickRate))
	broadcast := time.NewTicker(time.Second / time.Duration(r.cfg.BroadcastRate))
	defer tick.Stop()
	defer broadcast.Stop()

	for {
		select {
		case <-r.stop:
			r.mu.Lock()
			r.IsRunning = false
			r.mu.Unlock()
			return
		case <-tick.C:
			r.Advance(tickDt)
		case <-broadcast.C:
			r.replicator.Broadcast(r.Clock())
		}
	}
}

// Stop halts the scheduler. Entities are torn down individually via Despawn.
func (r *Room) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Spawn registers an entity with a fresh store, history buffer, input queue
// and violation record.
func (r *Room) Spawn(id EntityID, ownerUID int64, initial sim.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[id]; ok {
		return ErrAlreadySpawned
	}
	slot := &entitySlot{
		entity:  NetworkedEntity{ID: id, OwnerUID: ownerUID},
		store:   NewEntityStateStore(initial),
		history: NewHistoryBuffer(r.cfg.HistoryWindowSeconds),
		inputs:  NewInputChannel(r.cfg.MaxPendingInputs),
		budget:  rate.NewLimiter(rate.Limit(r.cfg.TickRate), r.inputBurst()),
	}
	slot.history.Push(HistoricalSnapshot{
		Position:  initial.Position,
		Velocity:  initial.Velocity,
		Timestamp: r.clock,
	})
	r.entities[id] = slot
	r.validator.Track(id)
	r.replicator.Attach(id, slot.store, slot.inputs.LastProcessed)
	r.LastActiveTime = time.Now().Unix()
	log.Printf("room %s: entity %d spawned for uid %d", r.ID, id, ownerUID)
	return nil
}

// Despawn tears down the entity's queue, history and violation record as
// one unit, under the room lock, so no buffered input or stale timer can
// touch it afterwards. Accumulated violations are handed to the reporter on
// the way out.
func (r *Room) Despawn(id EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.entities[id]
	if !ok {
		return ErrEntityNotFound
	}
	if rec, ok := r.validator.Violations(id); ok && rec.Count > 0 && r.reporter != nil {
		r.reporter.ReportViolations(r.ID, id, slot.entity.OwnerUID, rec)
	}
	delete(r.entities, id)
	r.validator.Forget(id)
	r.replicator.Detach(id)
	r.LastActiveTime = time.Now().Unix()
	log.Printf("room %s: entity %d despawned", r.ID, id)
	return nil
}

// ReceiveInput feeds one client sample into the entity's server-side queue.
// Replayed or stale sequence numbers are dropped there.
func (r *Room) ReceiveInput(id EntityID, sample protocol.InputMessage) error {
	r.mu.RLock()
	slot, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return ErrEntityNotFound
	}
	slot.inputs.Receive(sample)
	return nil
}

// Advance runs one authoritative tick: drain each entity's inputs in
// ascending sequence order, gate them through the tick budget and the
// validator, step the movement rule for accepted ones, commit, and record
// history. Rejected samples leave the last valid state in place.
func (r *Room) Advance(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentTick++
	r.clock += dt
	now := time.Unix(0, int64(r.clock*float64(time.Second)))

	for id, slot := range r.entities {
		batch := slot.inputs.DrainForTick()
		state := slot.store.Get()
		applied := false
		overBudget := 0

		for _, msg := range batch {
			if !slot.budget.AllowN(now, 1) {
				overBudget++
				continue
			}
			if v := r.validator.ValidateInput(id, msg, r.clock); !v.OK {
				log.Printf("room %s: entity %d input %d rejected: %s", r.ID, id, msg.Sequence, v.Reason)
				continue
			}
			candidate := sim.Step(state, sim.InputFromMessage(msg), dt, r.tuning())
			if v := r.validator.ValidatePosition(id, candidate.Position, state.Position, dt, r.clock); !v.OK {
				log.Printf("room %s: entity %d position rejected: %s", r.ID, id, v.Reason)
				continue
			}
			state = candidate
			applied = true
		}

		if overBudget > 0 {
			r.validator.FlagExcessInput(id, r.clock)
			log.Printf("room %s: entity %d dropped %d samples over tick budget", r.ID, id, overBudget)
		}
		if applied {
			slot.store.Set(RoleServer, state)
		}
		slot.history.Push(HistoricalSnapshot{
			Position:  state.Position,
			Velocity:  state.Velocity,
			Timestamp: r.clock,
		})
	}
}

func (r *Room) tuning() sim.Tuning {
	return sim.Tuning{MoveSpeed: r.cfg.MoveSpeed, MapSize: r.cfg.MapSize}
}

// inputBurst is the largest sample batch one tick may apply: a full send
// interval's worth plus a small lag allowance, so a normal cadence batch
// lands in one tick but a flooded queue cannot.
func (r *Room) inputBurst() int {
	b := int(float64(r.cfg.TickRate)*r.cfg.InputBufferIntervalSeconds+0.5) + inputLagTicks
	if b < 1 {
		b = 1
	}
	return b
}

// QueryHistoricalPosition answers "where was this entity at time t" for
// lag-compensated collaborators. Queries clamp to the retained window.
func (r *Room) QueryHistoricalPosition(id EntityID, t float64) (HistoricalSnapshot, error) {
	r.mu.RLock()
	slot, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return HistoricalSnapshot{}, ErrEntityNotFound
	}
	snap, ok := slot.history.Query(t)
	if !ok {
		return HistoricalSnapshot{}, ErrEntityNotFound
	}
	return snap, nil
}

// ViolationCount reports the entity's accumulated violations.
func (r *Room) ViolationCount(id EntityID) (uint32, error) {
	r.mu.RLock()
	_, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return 0, ErrEntityNotFound
	}
	rec, _ := r.validator.Violations(id)
	return rec.Count, nil
}

// Violations returns the full record for the moderation API.
func (r *Room) Violations(id EntityID) (ViolationRecord, error) {
	r.mu.RLock()
	_, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return ViolationRecord{}, ErrEntityNotFound
	}
	rec, _ := r.validator.Violations(id)
	return rec, nil
}

// AuthoritativeState returns a copy of the entity's current state.
func (r *Room) AuthoritativeState(id EntityID) (sim.State, error) {
	r.mu.RLock()
	slot, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return sim.State{}, ErrEntityNotFound
	}
	return slot.store.Get(), nil
}

// Subscribe registers a snapshot sink under a session key. The sink is
// primed with every entity's current state so late joiners see the full
// scene before the first dirty cycle.
func (r *Room) Subscribe(session string, sink SnapshotSink) {
	r.replicator.Subscribe(session, sink, r.Clock())
}

func (r *Room) Unsubscribe(session string) {
	r.replicator.Unsubscribe(session)
}

// Broadcast flushes dirty entities to subscribers immediately. The Run loop
// calls this on its own cadence; tests call it directly.
func (r *Room) Broadcast() {
	r.replicator.Broadcast(r.Clock())
}

// Clock returns seconds of simulated time since the room started.
func (r *Room) Clock() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clock
}

// Tick returns the current tick number.
func (r *Room) Tick() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentTick
}

// EntityCount reports how many entities are live.
func (r *Room) EntityCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
