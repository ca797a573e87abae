package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/platform/tui"
	"github.com/vovakirdan/tui-tower/internal/registry"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play against an opponent policy",
	Long: `Start a game against the selected opponent.

Controls:
  Left/Right, A/D  - Move the piece
  Z / X, Up        - Rotate counter-clockwise / clockwise
  Space/Down       - Drop
  P                - Pause
  R                - Restart (after game over)
  Esc/B            - Leave (when paused or after game over)
  Ctrl+S           - Save a screenshot
  Q/Ctrl+C         - Quit

Difficulty options:
  easy   - Long turns, forgiving tilt, three piece kinds
  normal - Default settings, timer shrinks as the tower grows
  hard   - Short turns, strict tilt, all piece kinds
  fixed  - No progression, stays at the config's settings

Examples:
  tower play
  tower play --opponent random
  tower play --difficulty hard
  tower play --config ./my-tower.yaml --seed 42`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func runPlay(_ *cobra.Command, _ []string) {
	base := loadConfig()
	diff := preset()
	opp := opponent(base)
	if !registry.Exists(opp) {
		fmt.Fprintf(os.Stderr, "Error: unknown opponent %q\n", opp)
		fmt.Fprintln(os.Stderr, "Run 'tower list' to see available opponents.")
		os.Exit(1)
	}

	logger, closeLog := newLogger("tower", true)
	defer closeLog()

	cfg := runtimeConfig()
	game, err := tui.NewMatch(tui.MatchSetup{
		Tower:      base,
		Opponent:   opp,
		Difficulty: diff,
		Seed:       cfg.Seed,
	}, logger)
	if err != nil {
		fail("%v", err)
	}

	// Open score storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		// Continue without storage - game still works
		store = nil
	}

	_, runErr := tui.Run(game, store, cfg, tui.ScoreKey(diff), logger)

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fail("running game: %v", runErr)
	}
}
