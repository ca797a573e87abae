package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/core"
	"github.com/vovakirdan/tui-tower/internal/games/tower"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

var flagStageJSON bool

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Print a generated stage",
	Long: `Generate the stage for a seed and print it with the first piece in
place, followed by the triangle list. With --json the full board snapshot
is printed instead.

Examples:
  tower stage --seed 42
  tower stage --seed 42 --difficulty hard
  tower stage --seed 42 --json`,
	Args: cobra.NoArgs,
	Run:  runStage,
}

func init() {
	stageCmd.Flags().BoolVar(&flagStageJSON, "json", false, "Print the board snapshot as JSON")
}

func runStage(cmd *cobra.Command, _ []string) {
	base := loadConfig()
	if cmd.Flags().Changed("difficulty") {
		config.ApplyTowerPreset(&base, preset())
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	idle, err := registry.Create("idle", seed)
	if err != nil {
		fail("%v", err)
	}
	game := tower.New(base, idle, nil)

	rc := runtimeConfig()
	rc.Seed = seed
	game.Reset(rc)
	if err := game.Err(); err != nil {
		fail("%v", err)
	}

	if flagStageJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tower.Capture(game.Engine())); err != nil {
			fail("%v", err)
		}
		return
	}

	screen := core.NewScreen(rc.ScreenW, rc.ScreenH)
	game.Render(screen)
	fmt.Println(screen.String())

	stage := game.Engine().Stage()
	fmt.Printf("Seed %d: %d triangles, total width %.2f\n", seed, len(stage.Triangles), stage.TotalWidth)
	for i, t := range stage.Triangles {
		fmt.Printf("  %2d  left (%6.2f, %6.2f)  right (%6.2f, %6.2f)  apex (%6.2f, %6.2f)\n",
			i, t.Left.X(), t.Left.Y(), t.Right.X(), t.Right.Y(), t.Apex.X(), t.Apex.Y())
	}
}
