package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
)

const dt = 1.0 / 60

func newTestWorld() (*World, *engine.Registry) {
	w := NewWorld(DefaultSettings(), nil)
	w.LoadStage(engine.Silhouette{
		Triangles: []engine.Triangle{{
			Left:  mgl64.Vec2{-2, 0},
			Right: mgl64.Vec2{2, 0},
			Apex:  mgl64.Vec2{0, -1},
		}},
		TotalWidth: 4,
	})
	return w, engine.NewRegistry()
}

// dropAndSettle drops a piece and advances until it stops falling.
func dropAndSettle(t *testing.T, w *World, reg *engine.Registry, kind engine.Kind, pos mgl64.Vec2, rot float64) *engine.Piece {
	t.Helper()
	p := reg.Add(kind, engine.PartyPlayer, pos)
	p.Rotation = rot
	w.Spawn(p)
	w.Drop(p.ID)

	for i := 0; i < 600; i++ {
		w.Advance(dt)
		if w.Outcome(p.ID) != engine.OutcomeFalling {
			return p
		}
	}
	t.Fatalf("Piece %d still falling after 10s", p.ID)
	return p
}

func TestCubeLandsOnStage(t *testing.T) {
	w, reg := newTestWorld()
	p := dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0, 3.5}, 0)

	if got := w.Outcome(p.ID); got != engine.OutcomeResting {
		t.Fatalf("Outcome = %v, want resting", got)
	}
	pos, _ := w.Transform(p.ID)
	if math.Abs(pos.Y()-0.25) > 1e-9 {
		t.Errorf("Rest height = %v, want 0.25", pos.Y())
	}
	if lin, ang := w.Velocity(p.ID); lin.Len() != 0 || ang != 0 {
		t.Errorf("Resting velocity = %v/%v, want zero", lin, ang)
	}
}

func TestPiecesStack(t *testing.T) {
	w, reg := newTestWorld()
	dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0, 3.5}, 0)
	b := dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0.1, 3.5}, 0)

	if got := w.Outcome(b.ID); got != engine.OutcomeResting {
		t.Fatalf("Outcome = %v, want resting", got)
	}
	pos, _ := w.Transform(b.ID)
	if math.Abs(pos.Y()-0.75) > 1e-9 {
		t.Errorf("Stacked height = %v, want 0.75", pos.Y())
	}
}

func TestOverhangTopples(t *testing.T) {
	w, reg := newTestWorld()
	dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0, 3.5}, 0)
	b := dropAndSettle(t, w, reg, engine.KindPlank, mgl64.Vec2{0.4, 3.5}, 0)

	if got := w.Outcome(b.ID); got != engine.OutcomeFailed {
		t.Errorf("Outcome = %v, want failed", got)
	}
}

func TestMissingTheStageFails(t *testing.T) {
	w, reg := newTestWorld()
	p := dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{3, 3.5}, 0)

	if got := w.Outcome(p.ID); got != engine.OutcomeFailed {
		t.Errorf("Outcome = %v, want failed", got)
	}
	pos, _ := w.Transform(p.ID)
	if pos.Y() >= w.Settings().KillY {
		t.Errorf("Failed piece at y=%v, expected below %v", pos.Y(), w.Settings().KillY)
	}
}

func TestTiltedLandingFails(t *testing.T) {
	w, reg := newTestWorld()
	p := dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0, 3.5}, 45)

	if got := w.Outcome(p.ID); got != engine.OutcomeFailed {
		t.Errorf("Outcome = %v, want failed", got)
	}
}

func TestRightAngleLandingRests(t *testing.T) {
	w, reg := newTestWorld()
	p := dropAndSettle(t, w, reg, engine.KindPillar, mgl64.Vec2{0, 3.5}, 90)

	if got := w.Outcome(p.ID); got != engine.OutcomeResting {
		t.Fatalf("Outcome = %v, want resting", got)
	}
	pos, _ := w.Transform(p.ID)
	if math.Abs(pos.Y()-0.15) > 1e-9 {
		t.Errorf("Rest height = %v, want 0.15 (pillar on its side)", pos.Y())
	}
}

func TestKinematicVelocity(t *testing.T) {
	w, reg := newTestWorld()
	p := reg.Add(engine.KindCube, engine.PartyAgent, mgl64.Vec2{0, 3.5})
	w.Spawn(p)

	w.SetTransform(p.ID, mgl64.Vec2{0.5, 3.5}, 10)
	w.Advance(0.5)

	lin, ang := w.Velocity(p.ID)
	if lin != (mgl64.Vec2{1, 0}) || ang != 20 {
		t.Errorf("Velocity = %v/%v, want (1,0)/20", lin, ang)
	}
	if w.Outcome(p.ID) != engine.OutcomeResting {
		t.Error("Held piece should report resting")
	}

	w.Advance(0.5)
	if lin, ang := w.Velocity(p.ID); lin.Len() != 0 || ang != 0 {
		t.Errorf("Velocity without movement = %v/%v, want zero", lin, ang)
	}
}

func TestKinematicVelocityAcrossHalfTurn(t *testing.T) {
	w, reg := newTestWorld()
	p := reg.Add(engine.KindCube, engine.PartyAgent, mgl64.Vec2{0, 3.5})
	p.Rotation = 179.5
	w.Spawn(p)

	w.SetTransform(p.ID, p.Pos, -179.5)
	w.Advance(dt)

	if _, ang := w.Velocity(p.ID); math.Abs(ang-60) > 1e-6 {
		t.Errorf("Angular speed = %v deg/s, want 60", ang)
	}
}

func TestSetTransformIgnoredAfterDrop(t *testing.T) {
	w, reg := newTestWorld()
	p := reg.Add(engine.KindCube, engine.PartyPlayer, mgl64.Vec2{0, 3.5})
	w.Spawn(p)
	w.Drop(p.ID)

	w.SetTransform(p.ID, mgl64.Vec2{1, 1}, 0)
	if pos, _ := w.Transform(p.ID); pos.X() != 0 {
		t.Errorf("Dropped body moved to %v", pos)
	}
}

func TestSupportLost(t *testing.T) {
	w, reg := newTestWorld()
	a := dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0, 3.5}, 0)
	b := dropAndSettle(t, w, reg, engine.KindCube, mgl64.Vec2{0, 3.5}, 0)

	w.bodies[a.ID].outcome = engine.OutcomeFailed
	w.Advance(dt)

	if got := w.Outcome(b.ID); got == engine.OutcomeResting {
		t.Errorf("Body on a failed support still resting")
	}
}

func TestRemove(t *testing.T) {
	w, reg := newTestWorld()
	p := reg.Add(engine.KindCube, engine.PartyPlayer, mgl64.Vec2{})
	w.Spawn(p)
	w.Remove(p.ID)

	if w.Bodies() != 0 {
		t.Errorf("Bodies = %d after remove, want 0", w.Bodies())
	}
	if w.Outcome(p.ID) != engine.OutcomeResting {
		t.Error("Unknown body should report resting")
	}
}

func TestShapeExtents(t *testing.T) {
	s := Shape{Width: 1, Height: 0.5}

	hx, hy := s.Extents(0)
	if hx != 0.5 || hy != 0.25 {
		t.Errorf("Extents(0) = %v, %v", hx, hy)
	}
	hx, hy = s.Extents(90)
	if math.Abs(hx-0.25) > 1e-9 || math.Abs(hy-0.5) > 1e-9 {
		t.Errorf("Extents(90) = %v, %v", hx, hy)
	}
}

func TestTilt(t *testing.T) {
	tests := []struct {
		deg, want float64
	}{
		{0, 0},
		{10, 10},
		{80, 10},
		{90, 0},
		{-100, 10},
		{45, 45},
	}
	for _, tt := range tests {
		if got := Tilt(tt.deg); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Tilt(%v) = %v, want %v", tt.deg, got, tt.want)
		}
	}
}
