package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndFetchEpisode(t *testing.T) {
	store := openTestStore(t)

	id := uuid.NewString()
	_, err := store.SaveEpisode(Episode{
		EpisodeID:   id,
		Mode:        "env",
		Opponent:    "greedy",
		Seed:        42,
		Steps:       120,
		Turns:       9,
		Pieces:      10,
		ForcedDrops: 1,
		TotalReward: 3.25,
		MaxHeight:   2.5,
		Loser:       "agent",
		EndReason:   "fall",
		Duration:    1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("SaveEpisode() failed: %v", err)
	}

	ep, err := store.EpisodeByID(id)
	if err != nil {
		t.Fatalf("EpisodeByID() failed: %v", err)
	}
	if ep == nil {
		t.Fatal("Episode not found")
	}
	if ep.Opponent != "greedy" || ep.Seed != 42 || ep.Turns != 9 || ep.TotalReward != 3.25 {
		t.Errorf("Unexpected episode: %+v", ep)
	}
	if ep.Loser != "agent" || ep.Duration != 1500*time.Millisecond {
		t.Errorf("Loser/Duration = %q/%v", ep.Loser, ep.Duration)
	}

	missing, err := store.EpisodeByID(uuid.NewString())
	if err != nil || missing != nil {
		t.Errorf("Unknown id should return nil, nil; got %v, %v", missing, err)
	}
}

func TestSaveEpisodeAssignsID(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveEpisode(Episode{Mode: "play", Opponent: "greedy", EndReason: "truncated"}); err != nil {
		t.Fatalf("SaveEpisode() failed: %v", err)
	}
	eps, err := store.RecentEpisodes("play", 5)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(eps) != 1 {
		t.Fatalf("Expected 1 episode, got %d", len(eps))
	}
	if _, err := uuid.Parse(eps[0].EpisodeID); err != nil {
		t.Errorf("Assigned id %q is not a UUID", eps[0].EpisodeID)
	}
	if eps[0].Loser != "" {
		t.Errorf("Truncated episode should have no loser, got %q", eps[0].Loser)
	}

	if _, err := store.SaveEpisode(Episode{EpisodeID: "not-a-uuid", Mode: "play", EndReason: "fall"}); err == nil {
		t.Error("Expected error for malformed episode id")
	}
}

func TestRecentEpisodesOrderAndFilter(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		store.SaveEpisode(Episode{Mode: "env", Opponent: "greedy", Turns: i, EndReason: "fall"})
	}
	store.SaveEpisode(Episode{Mode: "play", Opponent: "random", EndReason: "fall"})

	env, err := store.RecentEpisodes("env", 10)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(env) != 3 {
		t.Fatalf("Expected 3 env episodes, got %d", len(env))
	}
	if env[0].Turns != 2 || env[2].Turns != 0 {
		t.Errorf("Episodes not newest first: %d, %d", env[0].Turns, env[2].Turns)
	}

	all, _ := store.RecentEpisodes("", 10)
	if len(all) != 4 {
		t.Errorf("Expected 4 episodes across modes, got %d", len(all))
	}

	limited, _ := store.RecentEpisodes("", 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(limited))
	}
}

func TestEpisodeStats(t *testing.T) {
	store := openTestStore(t)

	store.SaveEpisode(Episode{Mode: "env", TotalReward: 2, Turns: 4, MaxHeight: 1.5, EndReason: "fall"})
	store.SaveEpisode(Episode{Mode: "env", TotalReward: 4, Turns: 8, MaxHeight: 3, EndReason: "truncated"})

	stats, err := store.GetEpisodeStats("env")
	if err != nil {
		t.Fatalf("GetEpisodeStats() failed: %v", err)
	}
	if stats.Count != 2 || stats.AvgReward != 3 || stats.BestReward != 4 || stats.AvgTurns != 6 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.MaxHeight != 3 || stats.Falls != 1 {
		t.Errorf("MaxHeight/Falls = %v/%d", stats.MaxHeight, stats.Falls)
	}

	if err := store.ClearEpisodes("env"); err != nil {
		t.Fatalf("ClearEpisodes() failed: %v", err)
	}
	stats, _ = store.GetEpisodeStats("env")
	if stats.Count != 0 {
		t.Errorf("Expected no episodes after clear, got %d", stats.Count)
	}

	if err := store.ClearEpisodes(""); err != nil {
		t.Fatalf("ClearEpisodes(\"\") failed: %v", err)
	}
	if eps, _ := store.RecentEpisodes("", 10); len(eps) != 0 {
		t.Errorf("Expected no episodes after clearing all, got %d", len(eps))
	}
}
