package engine

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the turn engine settings.
type Config struct {
	Kinds          []Kind  // Piece kinds drawn uniformly at spawn
	InitialParty   Party   // Party that owns the first piece after a reset
	InitialYOffset float64 // Spawn altitude after a reset
	SpawnClearance float64 // Minimum gap between spawn altitude and tower top
	SpawnStep      float64 // Altitude (and camera) raise when the gap is too small
	SpawnX         float64
	MaxTurnTime    float64 // Seconds before a drop is forced; <= 0 disables
	RetryDelay     float64 // Seconds in game over before an automatic reset; <= 0 disables
	Segments       int     // Surface profile bins
}

// DefaultConfig returns the stock turn settings.
func DefaultConfig() Config {
	return Config{
		Kinds:          append([]Kind(nil), DefaultKinds...),
		InitialParty:   PartyPlayer,
		InitialYOffset: 3.5,
		SpawnClearance: 4.0,
		SpawnStep:      2.0,
		SpawnX:         0,
		MaxTurnTime:    5.0,
		RetryDelay:     0,
		Segments:       DefaultSegments,
	}
}

// StepReport lists what happened during one Step call.
type StepReport struct {
	ForcedDrop   bool // Turn timer expired and the piece was dropped
	TurnComplete bool // Dropped piece came to rest
	Spawned      bool // Next piece spawned
	GameOver     bool // A piece failed this tick
	Reset        bool // Automatic retry started a new episode
}

// Option configures an Engine.
type Option func(*Engine)

// WithView attaches a rendering collaborator.
func WithView(v View) Option {
	return func(e *Engine) {
		if v != nil {
			e.view = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRand sets the random source used for piece selection.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// Engine is the two-party turn state machine. It owns the registry, the
// stage and the turn state; everything else talks to it through methods.
type Engine struct {
	cfg     Config
	stages  StageGenerator
	physics Physics
	view    View
	logger  *log.Logger
	rng     *rand.Rand

	pieces *Registry
	geom   *Geometry
	stage  Silhouette

	phase   Phase
	active  Party
	current *Piece // Spawned and not yet dropped
	dropped *Piece // Dropped and not yet resting

	yOffset     float64
	cameraShift float64
	turnElapsed float64
	overElapsed float64

	outcome     *GameOutcome
	episode     int
	turns       int
	forcedDrops int
}

// New creates an engine in the Idle phase. Call Reset to start an episode.
// stages may be nil; Reset then fails with ErrNoStageGenerator.
func New(cfg Config, stages StageGenerator, physics Physics, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		stages:  stages,
		physics: physics,
		view:    NopView{},
		logger:  log.New(io.Discard),
		rng:     rand.New(rand.NewSource(1)),
		pieces:  NewRegistry(),
		phase:   PhaseIdle,
		active:  cfg.InitialParty,
		yOffset: cfg.InitialYOffset,
	}
	e.geom = NewGeometry(e.pieces, cfg.Segments)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset releases every piece, regenerates the stage and spawns the first
// piece of a new episode. Safe to call in any phase.
func (e *Engine) Reset() error {
	if e.stages == nil {
		e.logger.Error("reset aborted", "err", ErrNoStageGenerator)
		return ErrNoStageGenerator
	}
	if len(e.cfg.Kinds) == 0 {
		e.logger.Error("reset aborted", "err", ErrNoPieceKinds)
		return ErrNoPieceKinds
	}
	stage, err := e.stages.Generate()
	if err != nil {
		e.logger.Error("stage generation failed", "err", err)
		return fmt.Errorf("engine: reset: %w", err)
	}

	e.pieces.Release(func(p *Piece) {
		e.physics.Remove(p.ID)
	})
	e.current = nil
	e.dropped = nil
	e.outcome = nil

	e.yOffset = e.cfg.InitialYOffset
	e.cameraShift = 0
	e.view.ResetCamera()
	e.view.HideGameOver()

	e.stage = stage
	e.geom.SetStage(&e.stage)
	e.physics.LoadStage(stage)

	e.turnElapsed = 0
	e.overElapsed = 0
	e.turns = 0
	e.forcedDrops = 0
	e.episode++
	e.phase = PhaseSpawning

	if err := e.SpawnPiece(); err != nil {
		return err
	}

	// The first piece always belongs to the initial party, whatever the
	// flip inside SpawnPiece produced.
	e.active = e.cfg.InitialParty
	e.current.Owner = e.active
	e.view.SetTurnIndicator(e.active)
	e.view.SetRotateEnabled(e.active == PartyPlayer)

	e.logger.Info("episode started",
		"episode", e.episode,
		"triangles", len(stage.Triangles),
		"width", stage.TotalWidth,
		"first", e.active,
	)
	return nil
}

// SpawnPiece creates the next piece above the tower and hands control to the
// other party. Spawning while a piece is still controllable, or after game
// over, is ignored.
func (e *Engine) SpawnPiece() error {
	if e.phase == PhaseGameOver {
		e.logger.Debug("spawn ignored: game over")
		return nil
	}
	if e.current != nil {
		e.logger.Debug("spawn ignored: piece still active", "piece", e.current.ID)
		return nil
	}
	if len(e.cfg.Kinds) == 0 {
		e.logger.Error("spawn aborted", "err", ErrNoPieceKinds)
		return ErrNoPieceKinds
	}

	e.phase = PhaseSpawning
	kind := e.cfg.Kinds[e.rng.Intn(len(e.cfg.Kinds))]

	height := e.geom.TowerHeight()
	if e.yOffset-height < e.cfg.SpawnClearance {
		e.yOffset += e.cfg.SpawnStep
		e.cameraShift += e.cfg.SpawnStep
		e.view.ShiftCamera(e.cfg.SpawnStep)
	}
	e.logger.Debug("spawning piece", "kind", kind, "tower_height", height, "y_offset", e.yOffset)

	e.active = e.active.Other()
	p := e.pieces.Add(kind, e.active, mgl64.Vec2{e.cfg.SpawnX, e.yOffset})
	e.physics.Spawn(p)

	e.current = p
	e.turnElapsed = 0
	e.phase = PhaseAwaitingAction

	e.view.SetPieceVisible(p.ID, true)
	e.view.SetRotateEnabled(e.active == PartyPlayer)
	e.view.SetTurnIndicator(e.active)
	return nil
}

// Move shifts the current piece horizontally, clamped to the stage bounds.
// Returns false when there is nothing to move.
func (e *Engine) Move(dx float64) bool {
	p := e.current
	if !p.Controllable() || dx == 0 {
		return false
	}
	left, right := e.geom.Bounds()
	x := mgl64.Clamp(p.Pos.X()+dx, left, right)
	p.Pos = mgl64.Vec2{x, p.Pos.Y()}
	e.physics.SetTransform(p.ID, p.Pos, p.Rotation)
	return true
}

// Rotate turns the current piece by deg degrees.
func (e *Engine) Rotate(deg float64) bool {
	p := e.current
	if !p.Controllable() || deg == 0 {
		return false
	}
	p.Rotation = NormalizeAngle(p.Rotation + deg)
	e.physics.SetTransform(p.ID, p.Pos, p.Rotation)
	return true
}

// Drop releases the current piece to the physics collaborator.
// Returns false if there is no controllable piece.
func (e *Engine) Drop() bool {
	p := e.current
	if !p.Controllable() {
		return false
	}
	p.Settled = true
	e.physics.Drop(p.ID)

	e.dropped = p
	e.current = nil
	e.turnElapsed = 0
	e.phase = PhaseSettling

	e.view.SetPieceVisible(p.ID, true)
	e.view.SetRotateEnabled(false)
	return true
}

// Step advances the engine by dt seconds: physics, turn timer, outcome
// polling, turn hand-over and the optional automatic retry.
func (e *Engine) Step(dt float64) StepReport {
	var rep StepReport

	switch e.phase {
	case PhaseIdle:
		return rep
	case PhaseGameOver:
		if e.cfg.RetryDelay > 0 {
			e.overElapsed += dt
			if e.overElapsed >= e.cfg.RetryDelay {
				if err := e.Reset(); err != nil {
					e.overElapsed = 0
				} else {
					rep.Reset = true
				}
			}
		}
		return rep
	}

	e.physics.Advance(dt)
	e.syncDropped()

	if e.current.Controllable() {
		e.turnElapsed += dt
		if e.cfg.MaxTurnTime > 0 && e.turnElapsed >= e.cfg.MaxTurnTime {
			e.logger.Info("turn timed out, forcing drop", "party", e.active, "piece", e.current.ID)
			e.Drop()
			e.forcedDrops++
			rep.ForcedDrop = true
		}
	}

	if fallen := e.pollOutcomes(); fallen != nil {
		e.gameOver(fallen)
		rep.GameOver = true
		return rep
	}

	if e.phase == PhaseSettling && e.dropped != nil &&
		e.physics.Outcome(e.dropped.ID) == OutcomeResting {
		e.phase = PhaseTurnComplete
		e.turns++
		e.dropped = nil
		rep.TurnComplete = true

		if err := e.SpawnPiece(); err == nil && e.current != nil {
			rep.Spawned = true
		}
	}

	return rep
}

// syncDropped copies physics transforms back onto dropped pieces.
func (e *Engine) syncDropped() {
	for _, p := range e.pieces.All() {
		if !p.Settled {
			continue
		}
		p.Pos, p.Rotation = e.physics.Transform(p.ID)
	}
}

// pollOutcomes flags newly failed pieces and returns the first of them.
func (e *Engine) pollOutcomes() *Piece {
	var first *Piece
	for _, p := range e.pieces.All() {
		if !p.Settled || p.Fallen {
			continue
		}
		if e.physics.Outcome(p.ID) == OutcomeFailed {
			p.Fallen = true
			if first == nil {
				first = p
			}
		}
	}
	return first
}

// gameOver freezes the board and attributes the loss to the active party.
func (e *Engine) gameOver(fallen *Piece) {
	e.phase = PhaseGameOver

	outcome := GameOutcome{
		Loser:  e.active,
		Winner: e.active.Other(),
		Fallen: fallen.ID,
		Banner: BannerWin,
	}
	if e.active == PartyPlayer {
		outcome.Banner = BannerLose
	}
	e.outcome = &outcome

	for _, p := range e.pieces.All() {
		p.Frozen = true
	}
	e.current = nil
	e.dropped = nil
	e.overElapsed = 0

	e.view.SetRotateEnabled(false)
	e.view.ShowGameOver(outcome)

	e.logger.Info("game over",
		"episode", e.episode,
		"loser", outcome.Loser,
		"fallen", fallen.ID,
		"pieces", e.pieces.Len(),
		"height", e.geom.TowerHeight(),
	)
}

// Phase returns the current state.
func (e *Engine) Phase() Phase { return e.phase }

// Active returns the party in control.
func (e *Engine) Active() Party { return e.active }

// Current returns the controllable piece, or nil.
func (e *Engine) Current() *Piece { return e.current }

// Pieces returns the registry.
func (e *Engine) Pieces() *Registry { return e.pieces }

// Geometry returns the tower geometry view.
func (e *Engine) Geometry() *Geometry { return e.geom }

// Physics returns the physics collaborator.
func (e *Engine) Physics() Physics { return e.physics }

// View returns the rendering collaborator.
func (e *Engine) View() View { return e.view }

// Stage returns the current silhouette (empty before the first reset).
func (e *Engine) Stage() Silhouette { return e.stage }

// YOffset returns the current spawn altitude.
func (e *Engine) YOffset() float64 { return e.yOffset }

// CameraShift returns how far the view has been asked to move since reset.
func (e *Engine) CameraShift() float64 { return e.cameraShift }

// TurnElapsed returns the seconds spent on the current piece.
func (e *Engine) TurnElapsed() float64 { return e.turnElapsed }

// TurnRemaining returns seconds left before a forced drop.
func (e *Engine) TurnRemaining() float64 {
	if e.cfg.MaxTurnTime <= 0 {
		return math.Inf(1)
	}
	return math.Max(0, e.cfg.MaxTurnTime-e.turnElapsed)
}

// Outcome returns the result of a finished episode.
func (e *Engine) Outcome() (GameOutcome, bool) {
	if e.outcome == nil {
		return GameOutcome{}, false
	}
	return *e.outcome, true
}

// Episode returns the number of resets performed.
func (e *Engine) Episode() int { return e.episode }

// Turns returns the number of pieces that came to rest this episode.
func (e *Engine) Turns() int { return e.turns }

// ForcedDrops returns the number of timer-forced drops this episode.
func (e *Engine) ForcedDrops() int { return e.forcedDrops }

// Config returns the engine settings.
func (e *Engine) Config() Config { return e.cfg }

// SetMaxTurnTime changes the forced-drop timeout from the next tick on.
func (e *Engine) SetMaxTurnTime(sec float64) {
	e.cfg.MaxTurnTime = sec
}

// RestingHeight returns the highest settled, unfallen piece, or FloorHeight.
func (e *Engine) RestingHeight() float64 {
	h := FloorHeight
	for _, p := range e.pieces.All() {
		if p.Settled && !p.Fallen && p.Pos.Y() > h {
			h = p.Pos.Y()
		}
	}
	return h
}

// NormalizeAngle maps degrees into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
