package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/platform/tui"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick an opponent and difficulty interactively",
	Long: `Start Tower Stack in interactive menu mode.

Use Up/Down to choose an opponent, Left/Right to change difficulty and
Enter to play. Leaving a finished game with Esc returns to the menu.

Controls:
  Up/Down/j/k     - Choose opponent
  Left/Right/h/l  - Change difficulty
  Enter/Space     - Play
  Tab             - Scoreboard
  Q               - Quit

Examples:
  tower menu
  tower menu --fps 30
  tower menu --db ./tower.db`,
	Args: cobra.NoArgs,
	Run:  runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	base := loadConfig()
	diff := preset()
	opp := opponent(base)

	logger, closeLog := newLogger("tower", true)
	defer closeLog()

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		store = nil
	}
	defer func() {
		if store != nil {
			store.Close()
		}
	}()

	cfg := runtimeConfig()

	for {
		menuResult, err := tui.RunMenu(store, cfg, opp, diff)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}

		// Update config with any size changes
		cfg = menuResult.Config
		diff = menuResult.Difficulty

		if menuResult.Quit {
			return
		}

		if menuResult.WantsScoreboard {
			goBack, sbErr := tui.RunScoreboard(store, cfg.ScreenW, cfg.ScreenH)
			if sbErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", sbErr)
			}
			if goBack {
				continue // Back to menu
			}
			return // User quit from scoreboard
		}

		opp = menuResult.Opponent
		if flagSeed == 0 {
			cfg.Seed = time.Now().UnixNano()
		}

		game, err := tui.NewMatch(tui.MatchSetup{
			Tower:      base,
			Opponent:   opp,
			Difficulty: diff,
			Seed:       cfg.Seed,
		}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating game: %v\n", err)
			continue
		}

		backToMenu, err := tui.Run(game, store, cfg, tui.ScoreKey(diff), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		}
		if !backToMenu {
			return
		}
	}
}
