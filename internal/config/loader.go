package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadTower loads the tower configuration.
// Search order: customPath -> ~/.tower/configs/tower.yaml -> ./configs/tower.yaml -> embedded default
//
// Files are decoded over the hard-coded defaults, so a partial file only
// overrides the keys it names.
func LoadTower(customPath string) (TowerConfig, error) {
	cfg := DefaultTowerConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("tower.yaml"); userCfgPath != "" {
		if loaded, ok := tryLoad(userCfgPath); ok {
			return loaded, nil
		}
	}

	// Try local configs directory
	if loaded, ok := tryLoad(filepath.Join("configs", "tower.yaml")); ok {
		return loaded, nil
	}

	// Use embedded default YAML
	embedded := DefaultTowerConfig()
	if err := yaml.Unmarshal(defaultTowerYAML, &embedded); err != nil {
		return DefaultTowerConfig(), nil // Fallback to hardcoded if embed fails
	}
	return embedded, nil
}

// tryLoad reads an optional config file. Missing or broken files are skipped.
func tryLoad(path string) (TowerConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TowerConfig{}, false
	}
	cfg := DefaultTowerConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TowerConfig{}, false
	}
	return cfg, true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tower", "configs", filename)
}

// ApplyTowerPreset modifies the config based on a difficulty preset.
func ApplyTowerPreset(cfg *TowerConfig, preset DifficultyPreset) {
	if preset == DifficultyFixed {
		cfg.Difficulty.Enabled = false
	} else {
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}

	// Adjust gameplay based on difficulty
	switch preset {
	case DifficultyEasy:
		cfg.Turn.MaxTurnTime = 8.0
		cfg.Physics.TiltLimit = 40.0
		cfg.Pieces.Kinds = []string{"cube", "plank", "slab"}
	case DifficultyHard:
		cfg.Turn.MaxTurnTime = 4.0
		cfg.Physics.TiltLimit = 25.0
		cfg.Pieces.Kinds = []string{"cube", "plank", "pillar", "slab", "wedge"}
		cfg.Stage.MaxTriangles = 7
	}
}

// Marshal renders the config as YAML, for writing a starter file.
func Marshal(cfg TowerConfig) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
