package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tower/internal/games/tower"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

var (
	flagEpisodeMode  string
	flagEpisodeLimit int
	flagEpisodeClear bool
)

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Show recorded episodes",
	Long: `List the most recent recorded episodes with aggregate stats.

Modes:
  play      - Keyboard games
  env       - Agent runs against an opponent policy
  selfplay  - Agent runs where the agent places every piece

Examples:
  tower episodes
  tower episodes --mode env --limit 50
  tower episodes --mode selfplay
  tower episodes --mode env --clear`,
	Args: cobra.NoArgs,
	Run:  runEpisodes,
}

func init() {
	episodesCmd.Flags().StringVar(&flagEpisodeMode, "mode", "", "Filter by mode: play, env, selfplay (default all)")
	episodesCmd.Flags().IntVar(&flagEpisodeLimit, "limit", 20, "Number of episodes to show")
	episodesCmd.Flags().BoolVar(&flagEpisodeClear, "clear", false, "Delete the recorded episodes for --mode (all if unset)")
}

func runEpisodes(_ *cobra.Command, _ []string) {
	switch flagEpisodeMode {
	case "", tower.ModePlay, tower.ModeEnv, tower.ModeSelfPlay:
	default:
		fail("unknown mode %q", flagEpisodeMode)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fail("opening database: %v", err)
	}
	defer store.Close()

	if flagEpisodeClear {
		if err := store.ClearEpisodes(flagEpisodeMode); err != nil {
			fail("%v", err)
		}
		fmt.Println("Cleared episodes.")
		return
	}

	eps, err := store.RecentEpisodes(flagEpisodeMode, flagEpisodeLimit)
	if err != nil {
		fail("%v", err)
	}

	if len(eps) == 0 {
		fmt.Println("No episodes recorded yet.")
		return
	}

	fmt.Printf("  %-16s  %-8s  %-8s  %5s  %8s  %6s  %-14s  %s\n",
		"Date", "Mode", "Opponent", "Turns", "Reward", "Height", "End", "Episode")
	for _, ep := range eps {
		end := ep.EndReason
		if ep.Loser != "" {
			end = ep.Loser + " fell"
		}
		fmt.Printf("  %-16s  %-8s  %-8s  %5d  %8.2f  %6.2f  %-14s  %s\n",
			ep.CreatedAt.Format("2006-01-02 15:04"),
			ep.Mode,
			ep.Opponent,
			ep.Turns,
			ep.TotalReward,
			ep.MaxHeight,
			end,
			ep.EpisodeID,
		)
	}

	modes := []string{tower.ModePlay, tower.ModeEnv, tower.ModeSelfPlay}
	if flagEpisodeMode != "" {
		modes = []string{flagEpisodeMode}
	}
	fmt.Println()
	for _, mode := range modes {
		stats, err := store.GetEpisodeStats(mode)
		if err != nil || stats.Count == 0 {
			continue
		}
		fmt.Printf("%-8s  episodes: %d  avg reward: %.2f  best: %.2f  avg turns: %.1f  max height: %.2f  falls: %d\n",
			mode, stats.Count, stats.AvgReward, stats.BestReward, stats.AvgTurns, stats.MaxHeight, stats.Falls)
	}
}
