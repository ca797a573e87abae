package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newAgentHarness(t *testing.T, acfg AgentConfig) (*harness, *Agent) {
	t.Helper()
	h := newHarness(t, DefaultConfig())
	a := NewAgent(h.eng, acfg, nil)
	if err := a.BeginEpisode(); err != nil {
		t.Fatalf("BeginEpisode failed: %v", err)
	}
	return h, a
}

func TestObserveLayout(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	cur := h.eng.Current()

	obs := a.Observe()
	if len(obs) != a.ObservationSize() {
		t.Fatalf("Observation length = %d, want %d", len(obs), a.ObservationSize())
	}
	if want := ObsHeader + DefaultSegments + 3; len(obs) != want {
		t.Errorf("Observation length = %d, want %d", len(obs), want)
	}
	if obs.X() != cur.Pos.X() || obs.Y() != cur.Pos.Y() {
		t.Errorf("Observed position (%v, %v), want %v", obs.X(), obs.Y(), cur.Pos)
	}
	if obs.Kind() != cur.Kind {
		t.Errorf("Observed kind %v, want %v", obs.Kind(), cur.Kind)
	}
	if got := obs.Stage(DefaultSegments); len(got) != 3 || got[2] != -1 {
		t.Errorf("Stage samples = %v, want [0 0 -1]", got)
	}

	info := a.Info()
	if info.Segments != DefaultSegments || info.HalfWidth != 2 || info.ObsSize != len(obs) {
		t.Errorf("Info = %+v", info)
	}
}

func TestObserveWithoutPiece(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	h.eng.Drop()

	obs := a.Observe()
	if !obs.Empty() || len(obs) != 0 {
		t.Errorf("Observation without piece = %v, want empty", obs)
	}
}

func TestActOnSettledPieceIsNoop(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	p := h.eng.Current()
	a.Act(Action{Move: 0.1}, 0.1)
	h.eng.Drop()

	pos, rot := p.Pos, p.Rotation
	tr := a.Act(Action{Move: 0.2, Rotate: 5, Drop: true}, 0.1)

	if tr.Applied || tr.Dropped {
		t.Errorf("Stale action reported as applied: %+v", tr)
	}
	if p.Pos != pos || p.Rotation != rot {
		t.Errorf("Settled piece moved: %v/%v -> %v/%v", pos, rot, p.Pos, p.Rotation)
	}
	if len(h.phys.drops) != 1 {
		t.Errorf("Physics drops = %d, want 1", len(h.phys.drops))
	}
}

func TestActClampsDeltas(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	p := h.eng.Current()

	a.Act(Action{Move: 5, Rotate: 45}, 0.1)
	if p.Pos.X() != 0.25 {
		t.Errorf("x = %v, want 0.25", p.Pos.X())
	}
	if p.Rotation != 10 {
		t.Errorf("Rotation = %v, want 10", p.Rotation)
	}
}

func TestRewardWithoutFall(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	// Keep the piece moving so still-detection stays quiet.
	h.phys.bodies[h.eng.Current().ID].lin = mgl64.Vec2{1, 0}

	tr := a.Act(Action{}, 0.1)
	want := 0.5 + 0.05*h.eng.Geometry().TowerHeight()
	if math.Abs(tr.Reward-want) > 1e-12 {
		t.Errorf("Reward = %v, want %v", tr.Reward, want)
	}
	if tr.Done || tr.Fallen {
		t.Errorf("Unexpected termination: %+v", tr)
	}
}

func TestRewardOnFall(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	h.settle(t)
	h.settle(t)

	h.eng.Pieces().At(0).Fallen = true
	tr := a.Act(Action{}, 0.1)

	if tr.Reward != -5 {
		t.Errorf("Reward = %v, want -5", tr.Reward)
	}
	if !tr.Done || !tr.Fallen {
		t.Errorf("Expected termination, got %+v", tr)
	}
	if tr.Blame != h.eng.Active() {
		t.Errorf("Blame = %v, want active party %v", tr.Blame, h.eng.Active())
	}

	if again := a.Evaluate(); again.Fallen {
		t.Error("Same fallen piece penalized twice")
	}
}

func TestRewardAfterEngineGameOver(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	h.settle(t)

	p := h.eng.Current()
	a.Act(Action{Drop: true}, 0.1)
	h.phys.set(p.ID, OutcomeFailed)
	h.eng.Step(0.1)

	tr := a.Evaluate()
	if !tr.Done || tr.Reward != -5 {
		t.Errorf("Transition = %+v, want -5 and done", tr)
	}
	if tr.Blame != PartyAgent {
		t.Errorf("Blame = %v, want agent", tr.Blame)
	}

	tr = a.Act(Action{Move: 1}, 0.1)
	if !tr.Done || tr.Reward != 0 || tr.Applied {
		t.Errorf("Post game-over transition = %+v", tr)
	}
}

func TestStillPieceAutoDrops(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	id := h.eng.Current().ID

	for i := 0; i < 3; i++ {
		if tr := a.Act(Action{}, 0.25); tr.AutoDropped {
			t.Fatalf("Auto drop after %.2fs", float64(i+1)*0.25)
		}
	}
	tr := a.Act(Action{}, 0.25)
	if !tr.AutoDropped {
		t.Fatal("Expected auto drop after 1.0s of stillness")
	}
	if h.eng.Current() != nil {
		t.Error("Piece still current after auto drop")
	}
	if len(h.phys.drops) != 1 || h.phys.drops[0] != id {
		t.Errorf("Physics drops = %v, want [%d]", h.phys.drops, id)
	}
}

func TestMovingPieceDoesNotAutoDrop(t *testing.T) {
	h, a := newAgentHarness(t, DefaultAgentConfig())
	b := h.phys.bodies[h.eng.Current().ID]

	b.ang = 5
	for i := 0; i < 20; i++ {
		if tr := a.Act(Action{}, 0.25); tr.AutoDropped {
			t.Fatalf("Spinning piece auto dropped at step %d", i)
		}
	}

	// Stillness restarts from zero once motion stops.
	b.ang = 0
	for i := 0; i < 3; i++ {
		if tr := a.Act(Action{}, 0.25); tr.AutoDropped {
			t.Fatalf("Auto drop after %d still steps", i+1)
		}
	}
}

func TestHiddenPiece(t *testing.T) {
	acfg := DefaultAgentConfig()
	acfg.HidePiece = true
	h, a := newAgentHarness(t, acfg)
	id := h.eng.Current().ID

	if vis, ok := h.view.visible[id]; !ok || vis {
		t.Errorf("Piece visible = %v (set %v), want hidden", vis, ok)
	}
	a.Act(Action{Drop: true}, 0.1)
	if !h.view.visible[id] {
		t.Error("Dropped piece should be shown")
	}
}

func TestBeginEpisodeError(t *testing.T) {
	e := New(DefaultConfig(), nil, newFakePhysics())
	a := NewAgent(e, DefaultAgentConfig(), nil)

	if err := a.BeginEpisode(); !errors.Is(err, ErrNoStageGenerator) {
		t.Errorf("BeginEpisode error = %v, want ErrNoStageGenerator", err)
	}
	if obs := a.Observe(); !obs.Empty() {
		t.Errorf("Observation = %v, want empty", obs)
	}
}
