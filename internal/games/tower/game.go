// Package tower implements Tower Stack: a human and an automated opponent
// take turns dropping pieces onto a jagged stage until one of them topples
// the tower.
package tower

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/core"
	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

// GameID is the identifier used for score storage.
const GameID = "tower"

// Game implements core.Game for the terminal: the player party is driven by
// the keyboard, the agent party by an opponent policy.
type Game struct {
	cfg      config.TowerConfig
	opponent registry.Policy
	logger   *log.Logger

	sess    *session
	view    *sceneView
	runtime core.RuntimeConfig
	err     error // Configuration error from the last Reset

	paused    bool
	episodeID string
	started   time.Time
}

// New creates a game. The opponent controls every agent piece; logger may be
// nil.
func New(cfg config.TowerConfig, opponent registry.Policy, logger *log.Logger) *Game {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Game{
		cfg:      cfg,
		opponent: opponent,
		logger:   logger,
	}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return GameID
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Tower Stack"
}

// Reset starts a new episode. A configuration error leaves the game showing
// the error instead of a board.
func (g *Game) Reset(runtime core.RuntimeConfig) {
	g.runtime = runtime
	g.paused = false
	g.view = newSceneView()

	sess, err := newSession(g.cfg, runtime.Seed, runtime.TickSeconds(), g.view, g.logger)
	if err == nil {
		err = sess.reset()
	}
	if err != nil {
		g.logger.Error("cannot start tower", "err", err)
		g.err = err
		g.sess = nil
		return
	}

	g.err = nil
	g.sess = sess
	if g.opponent != nil {
		g.opponent.Reset()
	}
	g.episodeID = uuid.NewString()
	g.started = time.Now()
	g.logger.Debug("game reset", "episode_id", g.episodeID, "seed", runtime.Seed)
}

// Err returns the configuration error that stopped the last Reset.
func (g *Game) Err() error {
	return g.err
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.sess == nil {
		return core.StepResult{State: g.State()}
	}

	if in.Has(core.ActionPause) && g.sess.eng.Phase() != engine.PhaseGameOver {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	switch {
	case g.sess.controlledBy(engine.PartyPlayer):
		g.applyInput(in)
	case g.sess.controlledBy(engine.PartyAgent) && g.opponent != nil:
		g.sess.drive(g.opponent)
	}

	rep := g.sess.step()
	if rep.Reset {
		if g.opponent != nil {
			g.opponent.Reset()
		}
		g.episodeID = uuid.NewString()
		g.started = time.Now()
	}

	return core.StepResult{
		State:        g.State(),
		TurnComplete: rep.TurnComplete,
		ForcedDrop:   rep.ForcedDrop,
	}
}

// applyInput maps keyboard actions onto the player's piece.
func (g *Game) applyInput(in core.InputFrame) {
	ctl := g.cfg.Controls

	if dx := in.Count(core.ActionMoveRight) - in.Count(core.ActionMoveLeft); dx != 0 {
		g.sess.eng.Move(float64(dx) * ctl.MoveStep)
	}
	// Counter-clockwise is positive.
	if dr := in.Count(core.ActionRotateLeft) - in.Count(core.ActionRotateRight); dr != 0 {
		g.sess.eng.Rotate(float64(dr) * ctl.RotateStep)
	}
	if in.Has(core.ActionDrop) {
		g.sess.eng.Drop()
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	if g.sess == nil {
		return core.GameState{Paused: g.paused}
	}

	st := core.GameState{
		Score:  g.sess.restingPieces(engine.PartyPlayer),
		Paused: g.paused,
	}
	if out, ok := g.sess.eng.Outcome(); ok {
		st.GameOver = true
		st.Won = out.Loser == engine.PartyAgent
	}
	return st
}

// Engine exposes the running engine, or nil before a successful Reset.
func (g *Game) Engine() *engine.Engine {
	if g.sess == nil {
		return nil
	}
	return g.sess.eng
}

// Summary describes the current episode for the episode log.
func (g *Game) Summary() Summary {
	sum := Summary{
		EpisodeID: g.episodeID,
		Mode:      ModePlay,
		Seed:      g.runtime.Seed,
		Duration:  time.Since(g.started),
	}
	if g.opponent != nil {
		sum.Opponent = g.opponent.ID()
	}
	if g.sess != nil {
		sum.fill(g.sess)
	}
	return sum
}

var _ core.Game = (*Game)(nil)
