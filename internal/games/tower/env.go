package tower

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/registry"
)

// Environment errors.
var (
	ErrNotStarted  = errors.New("tower: episode not started")
	ErrEpisodeDone = errors.New("tower: episode finished, call Reset")
)

// DefaultTickRate is the simulation rate of the environment.
const DefaultTickRate = 60

// maxSettleTicks bounds the wait for the next learner piece.
const maxSettleTicks = 60 * DefaultTickRate

// EnvOptions configures an environment.
type EnvOptions struct {
	Seed     int64
	MaxSteps int             // Decision steps before truncation; <= 0 disables
	Opponent registry.Policy // Drives player pieces; nil lets the learner play both sides
	TickRate int             // Simulation ticks per second; <= 0 uses DefaultTickRate
}

// StepInfo carries per-step diagnostics next to the reward.
type StepInfo struct {
	Turn        int     `json:"turn"`
	Height      float64 `json:"height"`
	Fallen      bool    `json:"fallen"`
	Blame       string  `json:"blame,omitempty"`
	Applied     bool    `json:"applied"`
	Dropped     bool    `json:"dropped"`
	AutoDropped bool    `json:"auto_dropped"`
	ForcedDrop  bool    `json:"forced_drop"`
}

// StepOutcome is the result of one decision step.
type StepOutcome struct {
	Observation engine.Observation `json:"observation"`
	Reward      float64            `json:"reward"`
	Done        bool               `json:"done"`
	Truncated   bool               `json:"truncated"`
	Info        StepInfo           `json:"info"`
}

// Env exposes the tower as a step-based environment for a learning agent.
// The learner controls agent pieces; each Step applies one action, runs
// TicksPerAction ticks and then plays the opponent until the learner holds a
// piece again or the episode ends.
type Env struct {
	cfg    config.TowerConfig
	opts   EnvOptions
	logger *log.Logger
	sess   *session

	summary Summary
	started time.Time
	active  bool
	done    bool
}

// NewEnv creates an environment. Automatic retry is disabled; Reset starts
// every episode. The turn timer stays at turn.max_turn_time for the whole
// episode: difficulty progression only applies to keyboard play.
func NewEnv(cfg config.TowerConfig, opts EnvOptions, logger *log.Logger) (*Env, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	cfg.Turn.RetryDelay = 0
	cfg.Difficulty.Enabled = false
	cfg.Difficulty.InitialLevel = 0

	sess, err := newSession(cfg, opts.Seed, 1/float64(opts.TickRate), nil, logger)
	if err != nil {
		return nil, err
	}
	return &Env{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		sess:   sess,
	}, nil
}

// Mode returns the episode-log mode of this environment.
func (e *Env) Mode() string {
	if e.opts.Opponent == nil {
		return ModeSelfPlay
	}
	return ModeEnv
}

// Reset starts a new episode and returns the first observation.
func (e *Env) Reset() (engine.Observation, error) {
	if err := e.sess.reset(); err != nil {
		e.active = false
		return nil, err
	}
	if e.opts.Opponent != nil {
		e.opts.Opponent.Reset()
	}

	e.summary = Summary{
		EpisodeID: uuid.NewString(),
		Mode:      e.Mode(),
		Seed:      e.opts.Seed,
	}
	if e.opts.Opponent != nil {
		e.summary.Opponent = e.opts.Opponent.ID()
	}
	e.started = time.Now()
	e.active = true
	e.done = false

	var rep engine.StepReport
	e.settle(&rep)
	if e.sess.eng.Phase() == engine.PhaseGameOver {
		e.done = true
	}
	e.logger.Debug("env reset", "episode_id", e.summary.EpisodeID, "first", e.sess.eng.Active())
	return e.sess.agent.Observe(), nil
}

// Step applies one action and advances until the learner's next decision.
func (e *Env) Step(act engine.Action) (StepOutcome, error) {
	switch {
	case !e.active:
		return StepOutcome{}, ErrNotStarted
	case e.done:
		return StepOutcome{}, ErrEpisodeDone
	}

	var info StepInfo
	var rep engine.StepReport

	for i := 0; i < e.sess.ticksPerAction; i++ {
		step := engine.Action{}
		if i == 0 {
			step = act
		}
		switch {
		case e.learnerHolds():
			tr := e.sess.agent.Apply(step, e.sess.dt)
			info.Applied = info.Applied || tr.Applied
			info.Dropped = info.Dropped || tr.Dropped
			info.AutoDropped = info.AutoDropped || tr.AutoDropped
		case e.opts.Opponent != nil && e.sess.controlledBy(engine.PartyPlayer):
			e.sess.drive(e.opts.Opponent)
		}
		e.merge(&rep, e.sess.step())
		if rep.GameOver {
			break
		}
	}
	if !rep.GameOver {
		e.settle(&rep)
	}

	tr := e.sess.agent.Evaluate()
	e.summary.Steps++
	e.summary.TotalReward += tr.Reward
	e.summary.MaxHeight = math.Max(e.summary.MaxHeight, e.sess.eng.RestingHeight())

	info.Turn = e.sess.eng.Turns()
	info.Height = e.sess.eng.Geometry().TowerHeight()
	info.Fallen = tr.Fallen
	info.ForcedDrop = rep.ForcedDrop
	if tr.Fallen {
		info.Blame = tr.Blame.String()
	}

	out := StepOutcome{
		Reward: tr.Reward,
		Done:   tr.Done,
		Info:   info,
	}
	if !out.Done && e.opts.MaxSteps > 0 && e.summary.Steps >= e.opts.MaxSteps {
		out.Truncated = true
		e.summary.EndReason = EndTruncated
	}
	e.done = out.Done || out.Truncated

	if !e.done {
		out.Observation = e.sess.agent.Observe()
	} else {
		out.Observation = engine.Observation{}
		e.logger.Info("episode finished",
			"episode_id", e.summary.EpisodeID,
			"steps", e.summary.Steps,
			"reward", e.summary.TotalReward,
			"truncated", out.Truncated,
		)
	}
	return out, nil
}

// settle runs ticks until the learner holds a controllable piece or the
// episode ends, letting the opponent play its turns.
func (e *Env) settle(rep *engine.StepReport) {
	for n := 0; n < maxSettleTicks; n++ {
		if e.learnerHolds() || e.sess.eng.Phase() == engine.PhaseGameOver {
			return
		}
		if e.opts.Opponent != nil && e.sess.controlledBy(engine.PartyPlayer) {
			e.sess.drive(e.opts.Opponent)
		}
		e.merge(rep, e.sess.step())
	}
	e.logger.Warn("settle limit reached", "phase", e.sess.eng.Phase(), "turns", e.sess.eng.Turns())
}

// learnerHolds reports whether the learner has a piece to act on.
func (e *Env) learnerHolds() bool {
	if e.opts.Opponent == nil {
		return e.sess.eng.Current().Controllable()
	}
	return e.sess.controlledBy(engine.PartyAgent)
}

func (e *Env) merge(dst *engine.StepReport, rep engine.StepReport) {
	dst.ForcedDrop = dst.ForcedDrop || rep.ForcedDrop
	dst.TurnComplete = dst.TurnComplete || rep.TurnComplete
	dst.Spawned = dst.Spawned || rep.Spawned
	dst.GameOver = dst.GameOver || rep.GameOver
}

// Info describes the observation layout of the current episode.
func (e *Env) Info() engine.EpisodeInfo {
	return e.sess.agent.Info()
}

// Done reports whether the current episode has finished.
func (e *Env) Done() bool {
	return e.done
}

// Snapshot captures the current engine state.
func (e *Env) Snapshot() Snapshot {
	return Capture(e.sess.eng)
}

// Summary describes the current or last episode.
func (e *Env) Summary() Summary {
	sum := e.summary
	sum.Duration = time.Since(e.started)
	sum.fill(e.sess)
	return sum
}

// EpisodeID returns the identifier of the current episode.
func (e *Env) EpisodeID() string {
	return e.summary.EpisodeID
}
