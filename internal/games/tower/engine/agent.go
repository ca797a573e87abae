package engine

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
)

// AgentConfig tunes the decision interface.
type AgentConfig struct {
	LinearEpsilon  float64 // Speed under which the piece counts as still
	AngularEpsilon float64 // Angular speed (deg/s) under which the piece counts as still
	StillDuration  float64 // Seconds of stillness before an automatic drop
	MaxMove        float64 // Per-action clamp on Action.Move; <= 0 disables
	MaxRotate      float64 // Per-action clamp on Action.Rotate; <= 0 disables
	StepReward     float64
	HeightWeight   float64
	FallPenalty    float64
	HidePiece      bool // Ask the view to hide the piece while the agent holds it
}

// DefaultAgentConfig returns the stock thresholds and reward constants.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		LinearEpsilon:  0.01,
		AngularEpsilon: 0.1,
		StillDuration:  1.0,
		MaxMove:        0.25,
		MaxRotate:      10,
		StepReward:     0.5,
		HeightWeight:   0.05,
		FallPenalty:    -5.0,
	}
}

// Action is one controller decision. Human input is mapped onto the same shape.
type Action struct {
	Move   float64 // Horizontal delta in world units
	Rotate float64 // Rotation delta in degrees
	Drop   bool    // Release the piece now
}

// Observation is the flat vector handed to a policy:
// x, y, rotation, kind index, surface profile bins, stage vertex heights.
type Observation []float64

// Layout offsets.
const (
	ObsX = iota
	ObsY
	ObsRotation
	ObsKind
	ObsHeader // Surface profile starts here
)

// Empty reports whether the observation carries no data.
func (o Observation) Empty() bool { return len(o) < ObsHeader }

// X returns the piece x position.
func (o Observation) X() float64 { return o.at(ObsX) }

// Y returns the piece y position.
func (o Observation) Y() float64 { return o.at(ObsY) }

// Rotation returns the piece rotation in degrees.
func (o Observation) Rotation() float64 { return o.at(ObsRotation) }

// Kind returns the piece kind.
func (o Observation) Kind() Kind { return Kind(int(o.at(ObsKind))) }

// Surface returns the profile bins.
func (o Observation) Surface(segments int) []float64 {
	if len(o) < ObsHeader+segments {
		return nil
	}
	return o[ObsHeader : ObsHeader+segments]
}

// Stage returns the stage vertex heights following the profile.
func (o Observation) Stage(segments int) []float64 {
	if len(o) < ObsHeader+segments {
		return nil
	}
	return o[ObsHeader+segments:]
}

func (o Observation) at(i int) float64 {
	if i >= len(o) {
		return 0
	}
	return o[i]
}

// EpisodeInfo describes the observation layout and action limits for the
// current episode.
type EpisodeInfo struct {
	Segments  int
	HalfWidth float64
	MaxMove   float64
	MaxRotate float64
	ObsSize   int
}

// Transition is the result of one action step.
type Transition struct {
	Reward      float64
	Done        bool
	Fallen      bool  // A piece failed during this step
	Blame       Party // Party active when the failure was seen
	Applied     bool  // The action reached a controllable piece
	AutoDropped bool  // The piece was released by still-detection
	Dropped     bool  // The piece was released by the action
}

// Agent is the observation/action/reward contract on top of an Engine.
type Agent struct {
	eng    *Engine
	cfg    AgentConfig
	logger *log.Logger

	tracked   *Piece
	still     float64
	penalized map[PieceID]bool
}

// NewAgent creates a decision interface bound to eng.
func NewAgent(eng *Engine, cfg AgentConfig, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Agent{
		eng:       eng,
		cfg:       cfg,
		logger:    logger,
		penalized: make(map[PieceID]bool),
	}
}

// Config returns the agent settings.
func (a *Agent) Config() AgentConfig { return a.cfg }

// Engine returns the underlying engine.
func (a *Agent) Engine() *Engine { return a.eng }

// BeginEpisode resets the engine and rebinds to the freshly spawned piece.
func (a *Agent) BeginEpisode() error {
	if err := a.eng.Reset(); err != nil {
		return err
	}
	a.eng.Geometry().Invalidate()
	a.tracked = nil
	a.still = 0
	clear(a.penalized)
	a.rebind()
	return nil
}

// Info describes the current episode.
func (a *Agent) Info() EpisodeInfo {
	return EpisodeInfo{
		Segments:  a.eng.Geometry().Segments(),
		HalfWidth: a.eng.Stage().HalfWidth(),
		MaxMove:   a.cfg.MaxMove,
		MaxRotate: a.cfg.MaxRotate,
		ObsSize:   a.ObservationSize(),
	}
}

// ObservationSize returns the vector length while a piece is active.
func (a *Agent) ObservationSize() int {
	g := a.eng.Geometry()
	return ObsHeader + g.Segments() + len(g.StageShape())
}

// Observe builds the observation for the current piece. Without one it logs
// a warning and returns an empty vector.
func (a *Agent) Observe() Observation {
	p := a.eng.Current()
	if p == nil {
		a.logger.Warn("observe without active piece", "phase", a.eng.Phase())
		return Observation{}
	}

	g := a.eng.Geometry()
	surface := g.SurfaceProfile()
	stage := g.StageShape()

	obs := make(Observation, 0, ObsHeader+len(surface)+len(stage))
	obs = append(obs, p.Pos.X(), p.Pos.Y(), p.Rotation, float64(p.Kind))
	obs = append(obs, surface...)
	obs = append(obs, stage...)
	return obs
}

// SetPieceVisible forwards a visibility request for the current piece.
func (a *Agent) SetPieceVisible(visible bool) {
	if p := a.eng.Current(); p != nil {
		a.eng.View().SetPieceVisible(p.ID, visible)
	}
}

// Apply moves and rotates the current piece, then drops it when asked to or
// once it has been still long enough. Actions on a settled piece are ignored.
func (a *Agent) Apply(act Action, dt float64) Transition {
	var tr Transition

	a.rebind()
	p := a.tracked
	if !p.Controllable() {
		return tr
	}
	tr.Applied = true

	a.eng.Move(clampAbs(act.Move, a.cfg.MaxMove))
	a.eng.Rotate(clampAbs(act.Rotate, a.cfg.MaxRotate))

	if act.Drop {
		a.SetPieceVisible(true)
		tr.Dropped = a.eng.Drop()
		a.still = 0
		return tr
	}

	lin, ang := a.eng.Physics().Velocity(p.ID)
	if lin.Len() < a.cfg.LinearEpsilon && math.Abs(ang) < a.cfg.AngularEpsilon {
		a.still += dt
	} else {
		a.still = 0
	}

	if a.cfg.StillDuration > 0 && a.still >= a.cfg.StillDuration {
		a.logger.Debug("piece still, dropping", "piece", p.ID, "still", a.still)
		a.SetPieceVisible(true)
		tr.AutoDropped = a.eng.Drop()
		a.still = 0
	}
	return tr
}

// Evaluate computes the shaped reward for the state after a step. A newly
// fallen piece costs FallPenalty whichever party placed it; Blame names the
// party that was active when it was seen.
func (a *Agent) Evaluate() Transition {
	var tr Transition

	for _, p := range a.eng.Pieces().All() {
		if p.Fallen && !a.penalized[p.ID] {
			a.penalized[p.ID] = true
			tr.Fallen = true
		}
	}

	switch {
	case tr.Fallen:
		tr.Reward = a.cfg.FallPenalty
		tr.Done = true
		tr.Blame = a.eng.Active()
		if out, ok := a.eng.Outcome(); ok {
			tr.Blame = out.Loser
		}
		a.logger.Debug("episode ended by fall", "blame", tr.Blame, "episode", a.eng.Episode())
	case a.eng.Phase() == PhaseGameOver:
		tr.Done = true
	default:
		tr.Reward = a.cfg.StepReward + a.cfg.HeightWeight*a.eng.Geometry().TowerHeight()
	}
	return tr
}

// Act applies an action and evaluates the reward without advancing time.
func (a *Agent) Act(act Action, dt float64) Transition {
	applied := a.Apply(act, dt)
	tr := a.Evaluate()
	tr.Applied = applied.Applied
	tr.Dropped = applied.Dropped
	tr.AutoDropped = applied.AutoDropped
	return tr
}

// rebind follows the engine's current piece, restarting still-detection when
// it changes.
func (a *Agent) rebind() {
	cur := a.eng.Current()
	if cur == nil || cur == a.tracked {
		return
	}
	a.tracked = cur
	a.still = 0
	if a.cfg.HidePiece {
		a.eng.View().SetPieceVisible(cur.ID, false)
	}
}

func clampAbs(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
