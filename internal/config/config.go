// Package config provides YAML-based game configuration loading and
// difficulty management for the tower game.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/games/tower/sim"
)

// ErrInvalidConfig marks a config value that cannot be used.
var ErrInvalidConfig = errors.New("config: invalid value")

// TowerConfig contains all configuration for the tower game.
type TowerConfig struct {
	Pieces      PiecesConfig      `yaml:"pieces"`
	Turn        TurnConfig        `yaml:"turn"`
	Controls    ControlsConfig    `yaml:"controls"`
	Stage       StageConfig       `yaml:"stage"`
	Agent       AgentConfig       `yaml:"agent"`
	Reward      RewardConfig      `yaml:"reward"`
	Observation ObservationConfig `yaml:"observation"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Difficulty  DifficultyConfig  `yaml:"difficulty"`
}

// PiecesConfig selects the piece set.
type PiecesConfig struct {
	Kinds []string `yaml:"kinds"` // cube, plank, pillar, slab, wedge
}

// TurnConfig defines spawn placement and turn timing.
type TurnConfig struct {
	InitialParty   string  `yaml:"initial_party"` // "player" or "agent"
	InitialYOffset float64 `yaml:"initial_y_offset"`
	SpawnClearance float64 `yaml:"spawn_clearance"`
	SpawnStep      float64 `yaml:"spawn_step"`
	SpawnX         float64 `yaml:"spawn_x"`
	MaxTurnTime    float64 `yaml:"max_turn_time"` // Seconds; 0 disables the forced drop
	RetryDelay     float64 `yaml:"retry_delay"`   // Seconds; 0 waits for an explicit restart
}

// ControlsConfig defines how far one key press moves the human's piece.
type ControlsConfig struct {
	MoveStep   float64 `yaml:"move_step"`
	RotateStep float64 `yaml:"rotate_step"`
}

// StageConfig defines the random stage ranges.
type StageConfig struct {
	MinTriangles   int     `yaml:"min_triangles"`
	MaxTriangles   int     `yaml:"max_triangles"`
	MaxWidth       float64 `yaml:"max_width"`
	MinHeight      float64 `yaml:"min_height"`
	MaxHeight      float64 `yaml:"max_height"`
	OverlapFactor  float64 `yaml:"overlap_factor"`
	BaseY          float64 `yaml:"base_y"`
	ExactCentering bool    `yaml:"exact_centering"`
}

// AgentConfig defines the automated controller's thresholds and cadence.
type AgentConfig struct {
	Opponent       string  `yaml:"opponent"` // Registered policy ID
	LinearEpsilon  float64 `yaml:"linear_epsilon"`
	AngularEpsilon float64 `yaml:"angular_epsilon"`
	StillDuration  float64 `yaml:"still_duration"`
	MaxMove        float64 `yaml:"max_move"`
	MaxRotate      float64 `yaml:"max_rotate"`
	TicksPerAction int     `yaml:"ticks_per_action"`
	HidePiece      bool    `yaml:"hide_piece"`
}

// RewardConfig defines reward shaping constants.
type RewardConfig struct {
	StepReward   float64 `yaml:"step_reward"`
	HeightWeight float64 `yaml:"height_weight"`
	FallPenalty  float64 `yaml:"fall_penalty"`
}

// ObservationConfig defines the observation layout.
type ObservationConfig struct {
	Segments int `yaml:"segments"`
}

// PhysicsConfig defines the simulated world.
type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`
	KillY        float64 `yaml:"kill_y"`
	LateralLimit float64 `yaml:"lateral_limit"`
	TiltLimit    float64 `yaml:"tilt_limit"`
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases over an episode.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "turns" or "none"
	MaxAt int    `yaml:"max_at"` // Completed turns at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	TurnTimeReduction float64 `yaml:"turn_time_reduction"` // Seconds removed from the turn timer at max difficulty
	MinTurnTime       float64 `yaml:"min_turn_time"`
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset parses a preset name. Empty means normal.
func ParsePreset(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, nil
	default:
		return DifficultyNormal, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, s)
	}
}

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// IsFixedPreset returns true if the preset disables progression.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}

// Kinds parses the configured piece set.
func (c TowerConfig) Kinds() ([]engine.Kind, error) {
	if len(c.Pieces.Kinds) == 0 {
		return nil, engine.ErrNoPieceKinds
	}
	kinds := make([]engine.Kind, 0, len(c.Pieces.Kinds))
	for _, name := range c.Pieces.Kinds {
		k, err := engine.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// EngineConfig converts the turn settings.
func (c TowerConfig) EngineConfig() (engine.Config, error) {
	kinds, err := c.Kinds()
	if err != nil {
		return engine.Config{}, err
	}
	party, err := engine.ParseParty(c.Turn.InitialParty)
	if err != nil {
		return engine.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return engine.Config{
		Kinds:          kinds,
		InitialParty:   party,
		InitialYOffset: c.Turn.InitialYOffset,
		SpawnClearance: c.Turn.SpawnClearance,
		SpawnStep:      c.Turn.SpawnStep,
		SpawnX:         c.Turn.SpawnX,
		MaxTurnTime:    c.Turn.MaxTurnTime,
		RetryDelay:     c.Turn.RetryDelay,
		Segments:       c.Observation.Segments,
	}, nil
}

// StageParams converts the stage ranges.
func (c TowerConfig) StageParams() engine.StageParams {
	return engine.StageParams{
		MinTriangles:   c.Stage.MinTriangles,
		MaxTriangles:   c.Stage.MaxTriangles,
		MaxWidth:       c.Stage.MaxWidth,
		MinHeight:      c.Stage.MinHeight,
		MaxHeight:      c.Stage.MaxHeight,
		OverlapFactor:  c.Stage.OverlapFactor,
		BaseY:          c.Stage.BaseY,
		ExactCentering: c.Stage.ExactCentering,
	}
}

// AgentSettings converts the decision interface settings.
func (c TowerConfig) AgentSettings() engine.AgentConfig {
	return engine.AgentConfig{
		LinearEpsilon:  c.Agent.LinearEpsilon,
		AngularEpsilon: c.Agent.AngularEpsilon,
		StillDuration:  c.Agent.StillDuration,
		MaxMove:        c.Agent.MaxMove,
		MaxRotate:      c.Agent.MaxRotate,
		StepReward:     c.Reward.StepReward,
		HeightWeight:   c.Reward.HeightWeight,
		FallPenalty:    c.Reward.FallPenalty,
		HidePiece:      c.Agent.HidePiece,
	}
}

// SimSettings converts the physics settings.
func (c TowerConfig) SimSettings() sim.Settings {
	return sim.Settings{
		Gravity:      c.Physics.Gravity,
		KillY:        c.Physics.KillY,
		LateralLimit: c.Physics.LateralLimit,
		TiltLimit:    c.Physics.TiltLimit,
	}
}

// Validate reports the first unusable setting.
func (c TowerConfig) Validate() error {
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	if err := c.StageParams().Validate(); err != nil {
		return err
	}

	switch {
	case c.Observation.Segments <= 0:
		return fmt.Errorf("%w: observation.segments must be positive", ErrInvalidConfig)
	case c.Turn.MaxTurnTime < 0:
		return fmt.Errorf("%w: turn.max_turn_time must not be negative", ErrInvalidConfig)
	case c.Turn.SpawnStep <= 0:
		return fmt.Errorf("%w: turn.spawn_step must be positive", ErrInvalidConfig)
	case c.Agent.StillDuration < 0:
		return fmt.Errorf("%w: agent.still_duration must not be negative", ErrInvalidConfig)
	case c.Agent.TicksPerAction <= 0:
		return fmt.Errorf("%w: agent.ticks_per_action must be positive", ErrInvalidConfig)
	case c.Controls.MoveStep <= 0 || c.Controls.RotateStep <= 0:
		return fmt.Errorf("%w: controls steps must be positive", ErrInvalidConfig)
	case c.Physics.Gravity <= 0:
		return fmt.Errorf("%w: physics.gravity must be positive", ErrInvalidConfig)
	case c.Physics.KillY >= c.Stage.BaseY:
		return fmt.Errorf("%w: physics.kill_y must be below stage.base_y", ErrInvalidConfig)
	}
	return nil
}

// IsConfigurationError reports whether err came from an unusable configuration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || engine.IsConfigurationError(err)
}
