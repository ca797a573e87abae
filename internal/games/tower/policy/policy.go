// Package policy provides the built-in automated opponents.
package policy

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

func init() {
	registry.Register("greedy", func(int64) registry.Policy { return NewGreedy() })
	registry.Register("random", func(seed int64) registry.Policy { return NewRandom(seed) })
	registry.Register("idle", func(int64) registry.Policy { return Idle{} })
}

// Greedy steers toward the lowest bin in the middle half of the stage,
// squares the piece up and then holds still so still-detection drops it.
type Greedy struct {
	// Tolerance is how close to the target (units, degrees) counts as aligned.
	Tolerance float64
}

// NewGreedy creates a greedy policy.
func NewGreedy() *Greedy {
	return &Greedy{Tolerance: 0.02}
}

func (g *Greedy) ID() string    { return "greedy" }
func (g *Greedy) Title() string { return "Greedy Builder" }
func (g *Greedy) Reset()        {}

// Decide implements registry.Policy.
func (g *Greedy) Decide(obs engine.Observation, info engine.EpisodeInfo) engine.Action {
	if obs.Empty() || info.Segments <= 0 {
		return engine.Action{}
	}

	target := TargetX(obs.Surface(info.Segments), info.HalfWidth)
	dx := target - obs.X()
	rot := obs.Rotation()
	dr := math.Round(rot/90)*90 - rot

	var act engine.Action
	if math.Abs(dx) > g.Tolerance {
		act.Move = limit(dx, info.MaxMove)
	}
	if math.Abs(dr) > 1 {
		act.Rotate = limit(dr, info.MaxRotate)
	}
	return act
}

// TargetX returns the center x of the lowest bin in the middle half of the
// profile. Ties go to the bin nearest the stage center.
func TargetX(surface []float64, halfWidth float64) float64 {
	n := len(surface)
	if n == 0 || halfWidth <= 0 {
		return 0
	}

	lo, hi := n/4, n-n/4
	if hi <= lo {
		lo, hi = 0, n
	}

	binW := 2 * halfWidth / float64(n)
	center := func(i int) float64 { return -halfWidth + (float64(i)+0.5)*binW }

	best := -1
	for i := lo; i < hi; i++ {
		if best < 0 || surface[i] < surface[best] ||
			(surface[i] == surface[best] && math.Abs(center(i)) < math.Abs(center(best))) {
			best = i
		}
	}
	return center(best)
}

// Random makes seeded random moves and occasionally drops.
type Random struct {
	seed     int64
	rng      *rand.Rand
	DropRate float64
}

// NewRandom creates a random policy.
func NewRandom(seed int64) *Random {
	return &Random{seed: seed, rng: rand.New(rand.NewSource(seed)), DropRate: 0.05}
}

func (r *Random) ID() string    { return "random" }
func (r *Random) Title() string { return "Random Flailer" }

// Reset restarts the random sequence.
func (r *Random) Reset() {
	r.rng = rand.New(rand.NewSource(r.seed))
}

// Decide implements registry.Policy.
func (r *Random) Decide(obs engine.Observation, info engine.EpisodeInfo) engine.Action {
	if obs.Empty() {
		return engine.Action{}
	}
	act := engine.Action{
		Move: (r.rng.Float64()*2 - 1) * info.MaxMove,
		Drop: r.rng.Float64() < r.DropRate,
	}
	switch r.rng.Intn(4) {
	case 0:
		act.Rotate = -info.MaxRotate
	case 1:
		act.Rotate = info.MaxRotate
	}
	return act
}

// Idle never acts and leaves every drop to still-detection or the turn timer.
type Idle struct{}

func (Idle) ID() string    { return "idle" }
func (Idle) Title() string { return "Idle" }
func (Idle) Reset()        {}

// Decide implements registry.Policy.
func (Idle) Decide(engine.Observation, engine.EpisodeInfo) engine.Action {
	return engine.Action{}
}

func limit(v, max float64) float64 {
	if max <= 0 {
		return v
	}
	return math.Max(-max, math.Min(max, v))
}

var (
	_ registry.Policy = (*Greedy)(nil)
	_ registry.Policy = (*Random)(nil)
	_ registry.Policy = Idle{}
)
