package config

import "math"

// DifficultyManager calculates dynamic turn parameters as the tower grows.
type DifficultyManager struct {
	cfg          DifficultyConfig
	initialLevel float64
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{
		cfg:          cfg,
		initialLevel: clampF(cfg.InitialLevel, 0.0, 1.0),
	}
}

// SetInitialLevel overrides the initial difficulty level (0.0 to 1.0).
func (d *DifficultyManager) SetInitialLevel(level float64) {
	d.initialLevel = clampF(level, 0.0, 1.0)
}

// SetEnabled enables or disables difficulty progression.
func (d *DifficultyManager) SetEnabled(enabled bool) {
	d.cfg.Enabled = enabled
}

// IsEnabled returns whether difficulty progression is active.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.Progression.Type != "none"
}

// Level returns the current difficulty level (0.0 to 1.0) after the given
// number of completed turns.
func (d *DifficultyManager) Level(turns int) float64 {
	if !d.IsEnabled() || d.cfg.Progression.Type != "turns" {
		return d.initialLevel
	}

	maxAt := float64(d.cfg.Progression.MaxAt)
	if maxAt <= 0 {
		maxAt = 1 // Prevent division by zero
	}
	progress := clampF(float64(turns)/maxAt, 0.0, 1.0)

	// Interpolate from initial level to 1.0
	return d.initialLevel + progress*(1.0-d.initialLevel)
}

// TurnTime returns the turn timer for the given number of completed turns.
// A base of 0 (timer disabled) is returned unchanged.
func (d *DifficultyManager) TurnTime(base float64, turns int) float64 {
	if base <= 0 {
		return base
	}
	level := d.Level(turns)
	result := base - level*d.cfg.Scaling.TurnTimeReduction
	floor := math.Min(base, d.cfg.Scaling.MinTurnTime)
	return math.Max(floor, result)
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
