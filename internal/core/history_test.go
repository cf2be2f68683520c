package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func snapAt(t float64, x float64) HistoricalSnapshot {
	return HistoricalSnapshot{Position: mgl64.Vec3{x, 0, 0}, Timestamp: t}
}

func TestHistoryQueryReturnsGreatestAtOrBefore(t *testing.T) {
	buf := NewHistoryBuffer(10.0)
	for i := 0; i < 5; i++ {
		buf.Push(snapAt(float64(i), float64(i)*2))
	}

	cases := []struct {
		query    float64
		wantTime float64
	}{
		{query: 2.0, wantTime: 2.0},
		{query: 2.5, wantTime: 2.0},
		{query: 4.0, wantTime: 4.0},
		{query: 99.0, wantTime: 4.0}, // future clamps to newest
	}
	for _, tc := range cases {
		got, ok := buf.Query(tc.query)
		if !ok {
			t.Fatalf("query(%v) returned no snapshot", tc.query)
		}
		if got.Timestamp != tc.wantTime {
			t.Fatalf("query(%v) returned timestamp %v, want %v", tc.query, got.Timestamp, tc.wantTime)
		}
	}
}

func TestHistoryQueryClampsToOldest(t *testing.T) {
	buf := NewHistoryBuffer(1.0)
	buf.Push(snapAt(5.0, 1))
	buf.Push(snapAt(5.5, 2))

	got, ok := buf.Query(0.5)
	if !ok {
		t.Fatalf("expected a snapshot for a pre-window query")
	}
	if got.Timestamp != 5.0 {
		t.Fatalf("pre-window query should clamp to oldest entry, got timestamp %v", got.Timestamp)
	}
}

func TestHistoryEvictsOutsideWindow(t *testing.T) {
	buf := NewHistoryBuffer(1.0)
	for i := 0; i <= 30; i++ {
		buf.Push(snapAt(float64(i)*0.1, float64(i)))
	}

	// Window is 1s; pushes at 0.0..3.0 mean everything before 2.0 is gone.
	got, _ := buf.Query(0.0)
	if got.Timestamp < 2.0-1e-9 {
		t.Fatalf("entries outside the window should be evicted, oldest is %v", got.Timestamp)
	}
	if n := buf.Len(); n > 12 {
		t.Fatalf("expected roughly one window of entries, have %d", n)
	}
}

func TestHistoryRejectsRegressingTimestamps(t *testing.T) {
	buf := NewHistoryBuffer(10.0)
	buf.Push(snapAt(5.0, 1))
	buf.Push(snapAt(4.0, 2)) // clock never runs backwards

	got, _ := buf.Query(4.5)
	if got.Timestamp != 5.0 {
		t.Fatalf("regressing snapshot should have been dropped, query returned %v", got.Timestamp)
	}
	if buf.Len() != 1 {
		t.Fatalf("expected 1 retained snapshot, have %d", buf.Len())
	}
}

func TestHistoryQueryEmpty(t *testing.T) {
	buf := NewHistoryBuffer(1.0)
	if _, ok := buf.Query(1.0); ok {
		t.Fatalf("empty buffer should report no snapshot")
	}
}
