package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List opponent policies",
	Long:  `Shows the automated opponents that can be passed to --opponent.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	policies := registry.List()

	if len(policies) == 0 {
		fmt.Println("No opponents available.")
		return
	}

	fmt.Println("Available opponents:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, p := range policies {
		if len(p.ID) > maxIDLen {
			maxIDLen = len(p.ID)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")

	for _, p := range policies {
		fmt.Printf("  %-*s  %s\n", maxIDLen, p.ID, p.Title)
	}

	fmt.Println()
	fmt.Println("Run 'tower play --opponent <id>' to play against one.")
}
