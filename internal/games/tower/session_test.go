package tower

import (
	"math"
	"testing"

	"github.com/vovakirdan/tui-tower/internal/config"
)

func TestSessionResetUsesStartingLevel(t *testing.T) {
	tests := []struct {
		preset config.DifficultyPreset
		want   float64
	}{
		{config.DifficultyEasy, 8.0},
		{config.DifficultyNormal, 5.0 - 0.3*2.5},
		{config.DifficultyHard, 4.0 - 0.7*2.5},
		{config.DifficultyFixed, 5.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			cfg := config.DefaultTowerConfig()
			config.ApplyTowerPreset(&cfg, tt.preset)

			sess, err := newSession(cfg, 1, 1.0/60, nil, nil)
			if err != nil {
				t.Fatalf("newSession failed: %v", err)
			}
			if err := sess.reset(); err != nil {
				t.Fatalf("reset failed: %v", err)
			}

			got := sess.eng.Config().MaxTurnTime
			if want := sess.diff.TurnTime(sess.baseTurnTime, 0); math.Abs(got-want) > 1e-9 {
				t.Errorf("turn 0 timer = %v, want TurnTime(base, 0) = %v", got, want)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("turn 0 timer = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionTimerNeverJumpsAfterFirstTurn(t *testing.T) {
	cfg := config.DefaultTowerConfig()
	config.ApplyTowerPreset(&cfg, config.DifficultyHard)

	sess, err := newSession(cfg, 1, 1.0/60, nil, nil)
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	if err := sess.reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	first := sess.eng.Config().MaxTurnTime
	next := sess.diff.TurnTime(sess.baseTurnTime, 1)
	if drop := first - next; drop < 0 || drop > 0.1 {
		t.Errorf("timer goes from %v to %v after one turn, want a small tightening", first, next)
	}
}
