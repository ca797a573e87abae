package config

import (
	"math"
	"testing"
)

func TestDifficultyLevel(t *testing.T) {
	d := NewDifficultyManager(DefaultTowerConfig().Difficulty)

	if got := d.Level(0); got != 0 {
		t.Errorf("Level(0) = %v, want 0", got)
	}
	if got := d.Level(15); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Level(15) = %v, want 0.5", got)
	}
	if got := d.Level(300); got != 1 {
		t.Errorf("Level(300) = %v, want 1", got)
	}

	d.SetInitialLevel(0.4)
	d.SetEnabled(false)
	if got := d.Level(300); got != 0.4 {
		t.Errorf("Disabled level = %v, want 0.4", got)
	}
}

func TestTurnTime(t *testing.T) {
	d := NewDifficultyManager(DefaultTowerConfig().Difficulty)

	tests := []struct {
		base  float64
		turns int
		want  float64
	}{
		{5, 0, 5},
		{5, 30, 2.5},
		{5, 60, 2.5},
		{2, 30, 1.5},
		{1, 30, 1},
		{0, 30, 0},
	}
	for _, tt := range tests {
		if got := d.TurnTime(tt.base, tt.turns); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TurnTime(%v, %d) = %v, want %v", tt.base, tt.turns, got, tt.want)
		}
	}
}
