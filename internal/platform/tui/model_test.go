package tui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tower/internal/core"
	"github.com/vovakirdan/tui-tower/internal/games/tower"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

const testEpisodeID = "6f1c2b1e-8a3b-4c55-9d2e-3f4a5b6c7d8e"

// scriptedGame reports whatever state the test sets.
type scriptedGame struct {
	state  core.GameState
	resets int
	steps  int
}

func (g *scriptedGame) ID() string { return "scripted" }
func (g *scriptedGame) Title() string { return "Scripted" }
func (g *scriptedGame) Reset(core.RuntimeConfig) { g.resets++; g.state = core.GameState{} }
func (g *scriptedGame) State() core.GameState { return g.state }
func (g *scriptedGame) Render(dst *core.Screen) { dst.Clear() }
func (g *scriptedGame) Step(core.InputFrame) core.StepResult {
	g.steps++
	return core.StepResult{State: g.state}
}

func (g *scriptedGame) Summary() tower.Summary {
	return tower.Summary{
		EpisodeID: testEpisodeID,
		Mode:      tower.ModePlay,
		Opponent:  "idle",
		Turns:     4,
		Loser:     "player",
		EndReason: tower.EndFall,
	}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestModel(g core.Game, store *storage.Store) Model {
	cfg := core.RuntimeConfig{ScreenW: 40, ScreenH: 12, TickRate: 60, Seed: 1}
	m := NewModel(g, store, cfg, "tower:normal", nil)
	m.Init()
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func TestModelSavesOnGameOver(t *testing.T) {
	store := openStore(t)
	g := &scriptedGame{}
	m := newTestModel(g, store)

	m = update(t, m, TickMsg{})
	g.state = core.GameState{Score: 3, GameOver: true}
	m = update(t, m, TickMsg{})
	m = update(t, m, TickMsg{})

	scores, err := store.TopScores("tower:normal", 10)
	if err != nil {
		t.Fatalf("TopScores failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 3 {
		t.Errorf("Scores = %+v, expected one score of 3", scores)
	}

	ep, err := store.EpisodeByID(testEpisodeID)
	if err != nil || ep == nil {
		t.Fatalf("Episode not saved: %v", err)
	}
	if ep.Loser != "player" || ep.Turns != 4 {
		t.Errorf("Episode = %+v", ep)
	}

	// Quitting afterwards must not log the same episode twice.
	m = update(t, m, runeKey('q'))
	if !m.IsQuitting() {
		t.Error("q should quit")
	}
	eps, _ := store.RecentEpisodes("", 10)
	if len(eps) != 1 {
		t.Errorf("Expected 1 episode, got %d", len(eps))
	}
}

func TestModelRestart(t *testing.T) {
	g := &scriptedGame{}
	m := newTestModel(g, nil)

	// Restart is ignored while playing.
	m = update(t, m, runeKey('r'))
	m = update(t, m, TickMsg{})
	if g.resets != 1 {
		t.Fatalf("resets = %d, expected 1", g.resets)
	}

	g.state = core.GameState{GameOver: true}
	m = update(t, m, TickMsg{})
	m = update(t, m, runeKey('r'))
	m = update(t, m, TickMsg{})
	if g.resets != 2 {
		t.Errorf("resets = %d, expected 2", g.resets)
	}
	if m.gameState.GameOver {
		t.Error("Game should be running after restart")
	}
}

func TestModelBackToMenu(t *testing.T) {
	g := &scriptedGame{}
	m := newTestModel(g, nil)

	m = update(t, m, TickMsg{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.BackToMenu() {
		t.Fatal("Back should be ignored mid-game")
	}

	g.state = core.GameState{Paused: true}
	m = update(t, m, TickMsg{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.BackToMenu() {
		t.Error("Back should leave a paused game")
	}
	if m.View() != "" {
		t.Error("View should be empty after leaving")
	}
}

func TestRenderScreenColors(t *testing.T) {
	s := core.NewScreen(4, 1)
	s.DrawText(0, 0, "ab")
	s.SetColor(2, 0, '#', core.ColorRed)

	out := RenderScreen(s)
	if len(out) < 4 || out[:2] != "ab" {
		t.Errorf("RenderScreen = %q, expected plain prefix", out)
	}
}
