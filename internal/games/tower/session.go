package tower

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/games/tower/sim"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

// session wires one engine to its physics world, decision interface and
// difficulty curve. Both the keyboard game and the environment drive one.
type session struct {
	cfg    config.TowerConfig
	world  *sim.World
	eng    *engine.Engine
	agent  *engine.Agent
	diff   *config.DifficultyManager
	logger *log.Logger

	baseTurnTime   float64
	ticksPerAction int
	dt             float64
	tick           int
}

func newSession(cfg config.TowerConfig, seed int64, dt float64, view engine.View, logger *log.Logger) (*session, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: tick length must be positive", config.ErrInvalidConfig)
	}

	world := sim.NewWorld(cfg.SimSettings(), logger.WithPrefix("sim"))
	stages := engine.NewRandomStage(cfg.StageParams(), rand.New(rand.NewSource(seed)))
	opts := []engine.Option{
		engine.WithLogger(logger.WithPrefix("engine")),
		engine.WithRand(rand.New(rand.NewSource(seed + 1))),
	}
	if view != nil {
		opts = append(opts, engine.WithView(view))
	}
	eng := engine.New(ecfg, stages, world, opts...)

	return &session{
		cfg:            cfg,
		world:          world,
		eng:            eng,
		agent:          engine.NewAgent(eng, cfg.AgentSettings(), logger.WithPrefix("agent")),
		diff:           config.NewDifficultyManager(cfg.Difficulty),
		logger:         logger,
		baseTurnTime:   ecfg.MaxTurnTime,
		ticksPerAction: cfg.Agent.TicksPerAction,
		dt:             dt,
	}, nil
}

// reset starts a new episode with the timer of the difficulty's starting level.
func (s *session) reset() error {
	s.eng.SetMaxTurnTime(s.diff.TurnTime(s.baseTurnTime, 0))
	s.tick = 0
	return s.agent.BeginEpisode()
}

// step advances the world by one tick and tightens the turn timer as turns
// complete.
func (s *session) step() engine.StepReport {
	s.tick++
	rep := s.eng.Step(s.dt)
	switch {
	case rep.Reset:
		s.eng.SetMaxTurnTime(s.diff.TurnTime(s.baseTurnTime, 0))
		s.eng.Geometry().Invalidate()
	case rep.TurnComplete:
		turns := s.eng.Turns()
		next := s.diff.TurnTime(s.baseTurnTime, turns)
		if next != s.eng.Config().MaxTurnTime {
			s.logger.Debug("turn timer tightened", "turns", turns, "seconds", next, "level", s.diff.Level(turns))
		}
		s.eng.SetMaxTurnTime(next)
	}
	return rep
}

// drive lets a policy control the current piece for one tick. The policy is
// consulted every ticksPerAction ticks; the ticks in between hold the piece
// still so still-detection can run.
func (s *session) drive(p registry.Policy) engine.Transition {
	if !s.eng.Current().Controllable() {
		return engine.Transition{}
	}
	var act engine.Action
	if s.ticksPerAction <= 1 || s.tick%s.ticksPerAction == 0 {
		act = p.Decide(s.agent.Observe(), s.agent.Info())
	}
	return s.agent.Apply(act, s.dt)
}

// controlledBy reports whether party currently holds a controllable piece.
func (s *session) controlledBy(party engine.Party) bool {
	cur := s.eng.Current()
	return cur.Controllable() && cur.Owner == party
}

// restingPieces counts the pieces of party that are on the tower.
func (s *session) restingPieces(party engine.Party) int {
	n := 0
	for _, p := range s.eng.Pieces().All() {
		if p.Owner == party && p.Settled && !p.Fallen &&
			s.world.Outcome(p.ID) == engine.OutcomeResting {
			n++
		}
	}
	return n
}
