package policy

import (
	"math"
	"testing"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

func observation(x, rot float64, surface []float64) engine.Observation {
	obs := engine.Observation{x, 3.5, rot, float64(engine.KindCube)}
	return append(obs, surface...)
}

func TestTargetX(t *testing.T) {
	tests := []struct {
		name    string
		surface []float64
		want    float64
	}{
		{"flat picks center", []float64{0, 0, 0, 0, 0, 0, 0, 0}, -0.25},
		{"lowest central bin", []float64{0, 0, 1, 1, 0.5, 1, 0, 0}, 0.25},
		{"outer bins ignored", []float64{-9, 0, 1, 1, 1, 1, 0, -9}, -0.25},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TargetX(tt.surface, 2)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TargetX = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGreedyMovesTowardTarget(t *testing.T) {
	g := NewGreedy()
	info := engine.EpisodeInfo{Segments: 8, HalfWidth: 2, MaxMove: 0.25, MaxRotate: 10}
	surface := []float64{0, 0, 1, 1, 0.5, 1, 0, 0}

	act := g.Decide(observation(-1, 0, surface), info)
	if act.Move != 0.25 {
		t.Errorf("Move = %v, want 0.25 (clamped toward target)", act.Move)
	}
	if act.Rotate != 0 || act.Drop {
		t.Errorf("Unexpected action %+v", act)
	}

	act = g.Decide(observation(0.25, 0, surface), info)
	if act != (engine.Action{}) {
		t.Errorf("Aligned piece should hold still, got %+v", act)
	}
}

func TestGreedySquaresUp(t *testing.T) {
	g := NewGreedy()
	info := engine.EpisodeInfo{Segments: 4, HalfWidth: 2, MaxMove: 0.25, MaxRotate: 10}
	surface := []float64{0, 0, 0, 0}

	act := g.Decide(observation(-0.5, 30, surface), info)
	if act.Rotate != -10 {
		t.Errorf("Rotate = %v, want -10", act.Rotate)
	}
	act = g.Decide(observation(-0.5, 85, surface), info)
	if act.Rotate != 5 {
		t.Errorf("Rotate = %v, want 5", act.Rotate)
	}
}

func TestGreedyEmptyObservation(t *testing.T) {
	act := NewGreedy().Decide(engine.Observation{}, engine.EpisodeInfo{Segments: 15})
	if act != (engine.Action{}) {
		t.Errorf("Action on empty observation = %+v", act)
	}
}

func TestRandomDeterministic(t *testing.T) {
	info := engine.EpisodeInfo{Segments: 4, HalfWidth: 2, MaxMove: 0.25, MaxRotate: 10}
	obs := observation(0, 0, []float64{0, 0, 0, 0})

	a, b := NewRandom(7), NewRandom(7)
	var first []engine.Action
	for i := 0; i < 50; i++ {
		x, y := a.Decide(obs, info), b.Decide(obs, info)
		if x != y {
			t.Fatalf("Step %d: %+v != %+v", i, x, y)
		}
		if math.Abs(x.Move) > info.MaxMove {
			t.Fatalf("Move %v exceeds limit", x.Move)
		}
		first = append(first, x)
	}

	a.Reset()
	for i := 0; i < 50; i++ {
		if got := a.Decide(obs, info); got != first[i] {
			t.Fatalf("Step %d after reset: %+v != %+v", i, got, first[i])
		}
	}
}

func TestRegistered(t *testing.T) {
	for _, id := range []string{"greedy", "random", "idle"} {
		if !registry.Exists(id) {
			t.Errorf("Policy %q not registered", id)
			continue
		}
		p, err := registry.Create(id, 1)
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", id, err)
		}
		if p.ID() != id {
			t.Errorf("Create(%q).ID() = %q", id, p.ID())
		}
	}

	if _, err := registry.Create("nope", 1); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
