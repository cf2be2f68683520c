package core

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// HistoricalSnapshot is one point-in-time record of an entity's state, kept
// for lag-compensated queries.
type HistoricalSnapshot struct {
	Position  mgl64.Vec3
	Velocity  mgl64.Vec3
	Timestamp float64
}

// HistoryBuffer keeps a rolling window of snapshots for one entity.
// Timestamps are non-decreasing; entries older than the window are evicted
// on push.
type HistoryBuffer struct {
	mu      sync.RWMutex
	window  float64
	entries []HistoricalSnapshot
}

func NewHistoryBuffer(windowSeconds float64) *HistoryBuffer {
	return &HistoryBuffer{window: windowSeconds}
}

// Push appends a snapshot and evicts everything older than the retention
// window. A snapshot older than the newest retained one is dropped rather
// than spliced in; the tick clock only moves forward.
func (h *HistoryBuffer) Push(snap HistoricalSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && snap.Timestamp < h.entries[n-1].Timestamp {
		return
	}
	h.entries = append(h.entries, snap)

	cutoff := snap.Timestamp - h.window
	i := 0
	for i < len(h.entries)-1 && h.entries[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		h.entries = append(h.entries[:0], h.entries[i:]...)
	}
}

// Query returns the snapshot with the greatest timestamp <= t. A query
// older than the window clamps to the oldest retained entry; a query in the
// future clamps to the newest. ok is false only when no snapshot was ever
// pushed.
func (h *HistoryBuffer) Query(t float64) (HistoricalSnapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return HistoricalSnapshot{}, false
	}
	if t <= h.entries[0].Timestamp {
		return h.entries[0], true
	}

	// Entries are time-ordered; binary search for the last one <= t.
	lo, hi := 0, len(h.entries)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if h.entries[mid].Timestamp <= t {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return h.entries[lo], true
}

// Len reports how many snapshots are currently retained.
func (h *HistoryBuffer) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
