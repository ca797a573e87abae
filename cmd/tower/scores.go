package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/platform/tui"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

var (
	flagScoresClear bool
	flagScoresAll   bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the top 10 scores for a difficulty. A score is the number of
pieces you placed before the tower fell.

Examples:
  tower scores
  tower scores --difficulty hard
  tower scores --difficulty easy --clear
  tower scores --all`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete the scores for this difficulty")
	scoresCmd.Flags().BoolVar(&flagScoresAll, "all", false, "Summarize every difficulty")
}

func runScores(_ *cobra.Command, _ []string) {
	diff := preset()
	key := tui.ScoreKey(diff)

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fail("opening scores database: %v", err)
	}
	defer store.Close()

	if flagScoresAll {
		printAllStats(store)
		return
	}

	if flagScoresClear {
		if err := store.ClearScores(key); err != nil {
			fail("%v", err)
		}
		fmt.Printf("Cleared %s scores.\n", diff)
		return
	}

	scores, err := store.TopScores(key, 10)
	if err != nil {
		fail("retrieving scores: %v", err)
	}

	fmt.Printf("High Scores - Tower Stack (%s)\n", diff)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'tower play --difficulty %s' to set the first high score!\n", diff)
		return
	}

	fmt.Printf("  %-4s  %-10s  %s\n", "Rank", "Placed", "Date")
	fmt.Printf("  %-4s  %-10s  %s\n", "----", "------", "----")

	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-10d  %s\n", i+1, entry.Score, dateStr)
	}

	fmt.Println()
	if stats, err := store.GetGameStats(key); err == nil {
		fmt.Printf("Best: %d  |  Games: %d  |  Average: %.1f\n", stats.HighScore, stats.GamesCount, stats.AvgScore)
	} else {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// printAllStats prints one summary line per difficulty that has scores.
func printAllStats(store *storage.Store) {
	all, err := store.GetAllGamesStats()
	if err != nil {
		fail("%v", err)
	}
	if len(all) == 0 {
		fmt.Println("No scores recorded yet.")
		return
	}

	fmt.Printf("  %-8s  %5s  %5s  %7s  %s\n", "Level", "Games", "Best", "Average", "Last played")
	for _, d := range tui.Difficulties {
		stats, ok := all[tui.ScoreKey(d)]
		if !ok {
			continue
		}
		fmt.Printf("  %-8s  %5d  %5d  %7.1f  %s\n",
			d, stats.GamesCount, stats.HighScore, stats.AvgScore, stats.LastPlayed.Format("2006-01-02 15:04"))
	}
}
