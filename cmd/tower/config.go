package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/config"
)

var flagConfigWrite string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the tower configuration after --config and --difficulty are
applied, as YAML. Use --write to save it as a starting point for edits.

Examples:
  tower config
  tower config --difficulty hard
  tower config --write ~/.tower/configs/tower.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func init() {
	configCmd.Flags().StringVar(&flagConfigWrite, "write", "", "Write the YAML to this path instead of stdout")
}

func runConfig(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	if cmd.Flags().Changed("difficulty") {
		config.ApplyTowerPreset(&cfg, preset())
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		fail("%v", err)
	}

	if flagConfigWrite == "" {
		fmt.Print(string(data))
		return
	}

	if err := os.MkdirAll(filepath.Dir(flagConfigWrite), 0o755); err != nil {
		fail("%v", err)
	}
	if err := os.WriteFile(flagConfigWrite, data, 0o644); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Wrote %s\n", flagConfigWrite)
}
