package config

import (
	_ "embed"
)

//go:embed defaults/tower.yaml
var defaultTowerYAML []byte

// DefaultTowerConfig returns the default tower configuration.
func DefaultTowerConfig() TowerConfig {
	return TowerConfig{
		Pieces: PiecesConfig{
			Kinds: []string{"cube", "plank", "pillar"},
		},
		Turn: TurnConfig{
			InitialParty:   "player",
			InitialYOffset: 3.5,
			SpawnClearance: 4.0,
			SpawnStep:      2.0,
			SpawnX:         0.0,
			MaxTurnTime:    5.0,
			RetryDelay:     0.0,
		},
		Controls: ControlsConfig{
			MoveStep:   0.15,
			RotateStep: 10.0,
		},
		Stage: StageConfig{
			MinTriangles:  5,
			MaxTriangles:  10,
			MaxWidth:      1.0,
			MinHeight:     0.5,
			MaxHeight:     1.5,
			OverlapFactor: 0.2,
			BaseY:         0.0,
		},
		Agent: AgentConfig{
			Opponent:       "greedy",
			LinearEpsilon:  0.01,
			AngularEpsilon: 0.1,
			StillDuration:  1.0,
			MaxMove:        0.25,
			MaxRotate:      10.0,
			TicksPerAction: 6,
		},
		Reward: RewardConfig{
			StepReward:   0.5,
			HeightWeight: 0.05,
			FallPenalty:  -5.0,
		},
		Observation: ObservationConfig{
			Segments: 15,
		},
		Physics: PhysicsConfig{
			Gravity:      9.81,
			KillY:        -6.0,
			LateralLimit: 6.0,
			TiltLimit:    35.0,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "turns",
				MaxAt: 30,
			},
			Scaling: ScalingConfig{
				TurnTimeReduction: 2.5,
				MinTurnTime:       1.5,
			},
		},
	}
}

// GetDefaultYAML returns the embedded default YAML.
func GetDefaultYAML() []byte {
	return defaultTowerYAML
}
