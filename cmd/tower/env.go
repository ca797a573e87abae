package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/envserver"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

var (
	flagEnvAddr     string
	flagMaxSteps    int
	flagPing        time.Duration
	flagNoEpisodeDB bool
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Serve the training environment over websockets",
	Long: `Start an HTTP server exposing the tower environment to external agents.

Each websocket connection on /env gets its own environment. Messages are
JSON objects with a "type" field:

  {"type":"spec"}                                   - observation and action layout
  {"type":"reset","seed":7,"opponent":"greedy"}     - start an episode
  {"type":"step","action":{"move":0.2,"rotate":-5,"drop":false}}
  {"type":"snapshot"}                               - board picture as JSON

GET /healthz reports liveness; GET /episodes?mode=env&limit=20 lists
recorded episodes. Use --opponent none for self-play, where the agent
places every piece.

Examples:
  tower env
  tower env --addr :9000 --opponent random
  tower env --opponent none --max-steps 500
  tower env --difficulty hard --seed 100`,
	Args: cobra.NoArgs,
	Run:  runEnv,
}

func init() {
	envCmd.Flags().StringVar(&flagEnvAddr, "addr", ":8765", "HTTP listen address (host:port)")
	envCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 1000, "Decision steps before an episode is truncated (0 = never)")
	envCmd.Flags().DurationVar(&flagPing, "ping", envserver.DefaultPingInterval, "Websocket keepalive interval")
	envCmd.Flags().BoolVar(&flagNoEpisodeDB, "no-record", false, "Do not record episodes in the database")
}

func runEnv(cmd *cobra.Command, _ []string) {
	base := loadConfig()
	if cmd.Flags().Changed("difficulty") {
		config.ApplyTowerPreset(&base, preset())
	}

	logger, closeLog := newLogger("tower-env", false)
	defer closeLog()

	var store *storage.Store
	if !flagNoEpisodeDB {
		s, err := storage.Open(flagDBPath)
		if err != nil {
			logger.Warn("could not open episode database", "error", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	srv, err := envserver.New(envserver.Config{
		Address:      flagEnvAddr,
		Tower:        base,
		Opponent:     opponent(base),
		Seed:         seed,
		MaxSteps:     flagMaxSteps,
		PingInterval: flagPing,
	}, store, logger)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving tower environment on ws://%s/env\n", displayAddr(flagEnvAddr))
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.ListenAndServe(ctx); err != nil {
		fail("%v", err)
	}
}

// displayAddr fills in localhost for a bare :port address.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
