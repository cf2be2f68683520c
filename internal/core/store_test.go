package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"moba/server/sync-service/internal/sim"
)

func TestStoreRejectsNonServerWrites(t *testing.T) {
	store := NewEntityStateStore(sim.State{})

	next := sim.State{Position: mgl64.Vec3{1, 2, 3}}
	if err := store.Set(RoleOwningClient, next); err != ErrNotAuthoritative {
		t.Fatalf("expected ErrNotAuthoritative, got %v", err)
	}
	if err := store.Set(RoleObserver, next); err != ErrNotAuthoritative {
		t.Fatalf("expected ErrNotAuthoritative, got %v", err)
	}
	if got := store.Get(); got.Position != (mgl64.Vec3{}) {
		t.Fatalf("state should be unchanged after rejected writes, got %v", got.Position)
	}

	if err := store.Set(RoleServer, next); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
	if got := store.Get(); got.Position != next.Position {
		t.Fatalf("server write not visible, got %v", got.Position)
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewEntityStateStore(sim.State{Position: mgl64.Vec3{1, 0, 0}})

	snap := store.Get()
	snap.Position[0] = 99

	if got := store.Get(); got.Position[0] != 1 {
		t.Fatalf("mutating a snapshot must not touch the store, got %v", got.Position[0])
	}
}

func TestStoreSubscribeFiresPerCommit(t *testing.T) {
	store := NewEntityStateStore(sim.State{})

	var calls int
	var last sim.State
	store.Subscribe(func(s sim.State) {
		calls++
		last = s
	})

	store.Set(RoleServer, sim.State{Position: mgl64.Vec3{1, 0, 0}})
	store.Set(RoleOwningClient, sim.State{Position: mgl64.Vec3{5, 0, 0}})
	store.Set(RoleServer, sim.State{Position: mgl64.Vec3{2, 0, 0}})

	if calls != 2 {
		t.Fatalf("expected 2 notifications (rejected writes do not notify), got %d", calls)
	}
	if last.Position[0] != 2 {
		t.Fatalf("last notification should carry the committed state, got %v", last.Position)
	}
}
