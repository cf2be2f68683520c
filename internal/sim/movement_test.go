package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestStepAdvancesAtMoveSpeed(t *testing.T) {
	tun := Tuning{MoveSpeed: 5.0, MapSize: 2000.0}
	s := Step(State{}, Input{Movement: mgl64.Vec3{1, 0, 0}}, 0.1, tun)

	if math.Abs(s.Position.X()-0.5) > 1e-9 {
		t.Fatalf("expected x=0.5 after 0.1s at speed 5, got %v", s.Position.X())
	}
	if math.Abs(s.Velocity.X()-5.0) > 1e-9 {
		t.Fatalf("expected velocity 5, got %v", s.Velocity.X())
	}
}

func TestStepRenormalizesOversizedDirection(t *testing.T) {
	tun := Tuning{MoveSpeed: 5.0}

	// A direction of magnitude 1.4 passes the validator's slop allowance
	// but must not translate into extra speed.
	s := Step(State{}, Input{Movement: mgl64.Vec3{1.4, 0, 0}}, 1.0, tun)
	if math.Abs(s.Position.X()-5.0) > 1e-9 {
		t.Fatalf("oversized direction should be renormalized, got x=%v", s.Position.X())
	}
}

func TestStepClampsToMap(t *testing.T) {
	tun := Tuning{MoveSpeed: 5.0, MapSize: 10.0}
	s := State{Position: mgl64.Vec3{9.9, 0, 0}}
	s = Step(s, Input{Movement: mgl64.Vec3{1, 0, 0}}, 1.0, tun)
	if s.Position.X() != 10.0 {
		t.Fatalf("expected clamp at map edge, got %v", s.Position.X())
	}

	s = State{Position: mgl64.Vec3{0.1, 0, 0}}
	s = Step(s, Input{Movement: mgl64.Vec3{-1, 0, 0}}, 1.0, tun)
	if s.Position.X() != 0 {
		t.Fatalf("expected clamp at origin, got %v", s.Position.X())
	}
}

func TestStepIsDeterministic(t *testing.T) {
	tun := Tuning{MoveSpeed: 5.0, MapSize: 2000.0}
	in := Input{Movement: mgl64.Vec3{0.7, 0, 0.7}}

	a := State{}
	b := State{}
	for i := 0; i < 100; i++ {
		a = Step(a, in, 1.0/60.0, tun)
		b = Step(b, in, 1.0/60.0, tun)
	}
	if a.Position != b.Position || a.Yaw != b.Yaw {
		t.Fatalf("identical input streams must produce identical states: %v vs %v", a.Position, b.Position)
	}
}

func TestFollowApproachesWithoutOvershoot(t *testing.T) {
	target := mgl64.Vec3{10, 0, 0}
	cam := State{}
	prev := 0.0
	for i := 0; i < 120; i++ {
		cam = Follow(cam, target, 1.0/60.0, 8.0)
		x := cam.Position.X()
		if x < prev || x > 10 {
			t.Fatalf("follow must approach monotonically, went %v -> %v", prev, x)
		}
		prev = x
	}
	if prev < 9 {
		t.Fatalf("two seconds of follow should be nearly there, at %v", prev)
	}
}
