package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/core"
	_ "github.com/vovakirdan/tui-tower/internal/games/tower/policy"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

func menuUpdate(t *testing.T, m MenuModel, msg tea.Msg) MenuModel {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(MenuModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm
}

func TestMenuPreselectsAndSelects(t *testing.T) {
	m := NewMenuModel(nil, core.DefaultConfig(), "random", config.DifficultyHard)

	if m.Difficulty() != config.DifficultyHard {
		t.Errorf("Difficulty = %q, expected hard", m.Difficulty())
	}
	if !strings.Contains(m.View(), "> Random Flailer") {
		t.Errorf("Cursor should start on the default opponent:\n%s", m.View())
	}

	m = menuUpdate(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Difficulty() != config.DifficultyFixed {
		t.Errorf("Difficulty = %q, expected fixed", m.Difficulty())
	}
	m = menuUpdate(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Difficulty() != config.DifficultyEasy {
		t.Errorf("Difficulty should wrap to easy, got %q", m.Difficulty())
	}
	m = menuUpdate(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.Difficulty() != config.DifficultyFixed {
		t.Errorf("Difficulty should wrap back to fixed, got %q", m.Difficulty())
	}

	m = menuUpdate(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Selected() == nil || m.Selected().PolicyID != "random" {
		t.Errorf("Selected = %+v, expected random", m.Selected())
	}
}

func TestMenuScoreboardAndQuit(t *testing.T) {
	m := NewMenuModel(nil, core.DefaultConfig(), "", config.DifficultyNormal)
	if m.Difficulty() != config.DifficultyNormal {
		t.Errorf("Difficulty = %q", m.Difficulty())
	}

	sb := menuUpdate(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if !sb.WantsScoreboard() {
		t.Error("Tab should open the scoreboard")
	}

	q := menuUpdate(t, m, runeKey('q'))
	if !q.IsQuitting() || q.View() != "" {
		t.Error("q should quit the menu")
	}
}

func TestScoreKey(t *testing.T) {
	if got := ScoreKey(config.DifficultyHard); got != "tower:hard" {
		t.Errorf("ScoreKey = %q", got)
	}
}

func TestScoreboardBoards(t *testing.T) {
	store := openStore(t)
	if _, err := store.SaveScore(ScoreKey(config.DifficultyEasy), 7); err != nil {
		t.Fatalf("SaveScore failed: %v", err)
	}
	if _, err := store.SaveEpisode(storage.Episode{Mode: "play", Opponent: "greedy", Turns: 3, EndReason: "fall", Loser: "agent"}); err != nil {
		t.Fatalf("SaveEpisode failed: %v", err)
	}

	sb := NewScoreboardModel(store, 100, 30)
	if len(sb.scores) != 1 || sb.scores[0].Score != 7 {
		t.Errorf("Easy board scores = %+v", sb.scores)
	}
	if !strings.Contains(sb.View(), "HIGH SCORES - Easy") {
		t.Errorf("View should title the easy board:\n%s", sb.View())
	}

	// Step through the difficulty boards to the first episode log.
	for range Difficulties {
		next, _ := sb.Update(tea.KeyMsg{Type: tea.KeyTab})
		sb = next.(ScoreboardModel)
	}
	if !sb.current().isEpisodes() || sb.current().Mode != "play" {
		t.Fatalf("Board = %+v, expected the play log", sb.current())
	}
	if len(sb.episodes) != 1 || sb.episodes[0].Opponent != "greedy" {
		t.Errorf("Episodes = %+v", sb.episodes)
	}

	next, _ := sb.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !next.(ScoreboardModel).IsGoingBack() {
		t.Error("Esc should go back")
	}
}
