package tui

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/games/tower"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

// MatchSetup describes a keyboard game against an opponent policy.
type MatchSetup struct {
	Tower      config.TowerConfig
	Opponent   string
	Difficulty config.DifficultyPreset
	Seed       int64
}

// NewMatch builds the game for setup. The preset is applied to a copy of the
// tower config.
func NewMatch(setup MatchSetup, logger *log.Logger) (*tower.Game, error) {
	tc := setup.Tower
	tc.Pieces.Kinds = append([]string(nil), tc.Pieces.Kinds...)
	config.ApplyTowerPreset(&tc, setup.Difficulty)
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	policy, err := registry.Create(setup.Opponent, setup.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	if logger != nil {
		logger = logger.With("opponent", setup.Opponent, "difficulty", setup.Difficulty)
	}
	return tower.New(tc, policy, logger), nil
}
