// tower is a terminal tower-stacking game where a human and an automated
// opponent take turns, plus a training environment for external agents.
//
// Usage:
//
//	tower play               - Play against an opponent policy
//	tower menu               - Pick opponent and difficulty interactively
//	tower serve              - Start SSH server for remote play
//	tower env                - Start the websocket training environment
//	tower scores             - Show high scores
//	tower episodes           - Show recorded episodes
//	tower list               - List opponent policies
//	tower stage              - Print a generated stage
//	tower config             - Print the effective configuration
//
// Global flags:
//
//	--fps <rate>          - Set tick rate (default: 60)
//	--seed <value>        - Set RNG seed for reproducible gameplay
//	--db <path>           - Set database path (default: ~/.tower/tower.db)
//	--config <path>       - Custom tower config YAML
//	--difficulty <preset> - easy, normal, hard, fixed
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/core"

	// Import policies to register them
	_ "github.com/vovakirdan/tui-tower/internal/games/tower/policy"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagOpponent   string
	flagLogLevel   string
	flagLogFile    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tower",
	Short: "Tower Stack - stack pieces against an opponent in your terminal",
	Long: `Tower Stack is a turn-based stacking game. You and an automated
opponent take turns dropping pieces onto a jagged stage; whoever topples
the tower loses.

Available commands:
  play      - Play against an opponent directly
  menu      - Interactive opponent and difficulty picker
  serve     - Start SSH server for remote play
  env       - Serve the training environment over websockets
  scores    - View high scores
  episodes  - View recorded episodes
  list      - Show opponent policies
  stage     - Print a generated stage
  config    - Print the effective configuration

Examples:
  tower play --opponent greedy
  tower menu --difficulty hard
  tower serve --ssh :2222
  tower env --addr :8765 --opponent none
  tower scores --difficulty easy`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tower/tower.db", "Path to scores and episodes database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom tower config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagOpponent, "opponent", "", "Opponent policy ID (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(configCmd)
}

// fail prints err and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// newLogger builds the command logger. Interactive commands pass
// interactive=true so that logs never draw over the game unless --log-file
// is set. The returned closer releases the log file.
func newLogger(prefix string, interactive bool) (*log.Logger, func()) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		fail("invalid --log-level %q", flagLogLevel)
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fail("cannot open log file: %v", err)
		}
		w = f
		closer = func() { f.Close() }
	case interactive:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
	return logger, closer
}

// preset parses --difficulty.
func preset() config.DifficultyPreset {
	p, err := config.ParsePreset(flagDifficulty)
	if err != nil {
		fail("%v", err)
	}
	return p
}

// loadConfig loads the tower config named by --config.
func loadConfig() config.TowerConfig {
	cfg, err := config.LoadTower(flagConfig)
	if err != nil {
		fail("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		fail("%v", err)
	}
	return cfg
}

// opponent returns --opponent or the configured default.
func opponent(cfg config.TowerConfig) string {
	if flagOpponent != "" {
		return flagOpponent
	}
	return cfg.Agent.Opponent
}

// runtimeConfig sizes the screen from the terminal.
func runtimeConfig() core.RuntimeConfig {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}
}
