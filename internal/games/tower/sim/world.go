package sim

import (
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
)

// Settings holds the world constants.
type Settings struct {
	Gravity      float64 // Downward acceleration, units/s²
	KillY        float64 // Bodies below this height have failed
	LateralLimit float64 // Bodies beyond |x| have failed
	TiltLimit    float64 // Degrees off square before a landed body topples
}

// DefaultSettings returns the stock world constants.
func DefaultSettings() Settings {
	return Settings{
		Gravity:      9.81,
		KillY:        -6,
		LateralLimit: 6,
		TiltLimit:    35,
	}
}

const stageSupport engine.PieceID = 0

type body struct {
	id    engine.PieceID
	shape Shape

	pos mgl64.Vec2
	rot float64
	vel mgl64.Vec2
	ang float64 // deg/s

	prevPos mgl64.Vec2
	prevRot float64

	dynamic bool
	outcome engine.Outcome
	support engine.PieceID // What a resting body sits on
	seq     int            // Drop order
}

func (b *body) extents() (hx, hy float64) {
	return b.shape.Extents(b.rot)
}

func (b *body) top() float64 {
	_, hy := b.extents()
	return b.pos.Y() + hy
}

// World implements engine.Physics.
type World struct {
	settings Settings
	stage    engine.Silhouette
	bodies   map[engine.PieceID]*body
	drops    int
	logger   *log.Logger
}

// NewWorld creates an empty world. logger may be nil.
func NewWorld(settings Settings, logger *log.Logger) *World {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &World{
		settings: settings,
		bodies:   make(map[engine.PieceID]*body),
		logger:   logger,
	}
}

// Settings returns the world constants.
func (w *World) Settings() Settings { return w.settings }

// LoadStage implements engine.Physics.
func (w *World) LoadStage(stage engine.Silhouette) {
	w.stage = stage
}

// Spawn implements engine.Physics.
func (w *World) Spawn(p *engine.Piece) {
	w.bodies[p.ID] = &body{
		id:      p.ID,
		shape:   ShapeOf(p.Kind),
		pos:     p.Pos,
		rot:     p.Rotation,
		prevPos: p.Pos,
		prevRot: p.Rotation,
		outcome: engine.OutcomeResting,
	}
}

// SetTransform implements engine.Physics. Dynamic bodies ignore it.
func (w *World) SetTransform(id engine.PieceID, pos mgl64.Vec2, rotation float64) {
	b, ok := w.bodies[id]
	if !ok || b.dynamic {
		return
	}
	b.pos = pos
	b.rot = rotation
}

// Drop implements engine.Physics.
func (w *World) Drop(id engine.PieceID) {
	b, ok := w.bodies[id]
	if !ok || b.dynamic {
		return
	}
	w.drops++
	b.dynamic = true
	b.seq = w.drops
	b.vel = mgl64.Vec2{}
	b.ang = 0
	b.outcome = engine.OutcomeFalling
}

// Remove implements engine.Physics.
func (w *World) Remove(id engine.PieceID) {
	delete(w.bodies, id)
}

// Advance implements engine.Physics.
func (w *World) Advance(dt float64) {
	if dt <= 0 {
		return
	}

	for _, b := range w.bodies {
		if !b.dynamic {
			b.vel = b.pos.Sub(b.prevPos).Mul(1 / dt)
			b.ang = engine.NormalizeAngle(b.rot-b.prevRot) / dt
			b.prevPos = b.pos
			b.prevRot = b.rot
		}
	}

	// Resolve in drop order so a body lands on supports that already settled
	// this tick.
	order := w.dynamicBodies()
	for _, b := range order {
		w.unsupport(b)
	}
	for _, b := range order {
		if b.outcome != engine.OutcomeResting {
			w.fall(b, dt)
		}
	}
}

func (w *World) dynamicBodies() []*body {
	out := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		if b.dynamic {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// unsupport puts a resting body back into free fall when its support is gone.
func (w *World) unsupport(b *body) {
	if b.outcome != engine.OutcomeResting || b.support == stageSupport {
		return
	}
	s, ok := w.bodies[b.support]
	if ok && s.outcome == engine.OutcomeResting {
		return
	}
	w.logger.Debug("support lost", "piece", b.id, "support", b.support)
	b.outcome = engine.OutcomeFalling
	b.support = stageSupport
}

func (w *World) fall(b *body, dt float64) {
	if b.outcome == engine.OutcomeFailed && b.pos.Y() < w.settings.KillY {
		b.vel = mgl64.Vec2{}
		return
	}

	_, hy := b.extents()
	prevBottom := b.pos.Y() - hy

	b.vel = b.vel.Add(mgl64.Vec2{0, -w.settings.Gravity * dt})
	b.pos = b.pos.Add(b.vel.Mul(dt))

	if b.outcome == engine.OutcomeFailed {
		b.rot = engine.NormalizeAngle(b.rot + b.ang*dt)
		return
	}

	if b.pos.Y() < w.settings.KillY || math.Abs(b.pos.X()) > w.settings.LateralLimit {
		w.fail(b, "out of bounds")
		return
	}

	top, left, right, support, ok := w.supportUnder(b, prevBottom)
	if !ok || b.pos.Y()-hy > top {
		return
	}

	b.pos = mgl64.Vec2{b.pos.X(), top + hy}
	b.vel = mgl64.Vec2{}
	b.ang = 0

	switch {
	case b.pos.X() < left || b.pos.X() > right:
		w.fail(b, "center of mass past support edge")
	case Tilt(b.rot) > w.settings.TiltLimit:
		w.fail(b, "tilted past limit")
	default:
		b.outcome = engine.OutcomeResting
		b.support = support
		w.logger.Debug("piece landed", "piece", b.id, "y", b.pos.Y(), "support", support)
	}
}

func (w *World) fail(b *body, reason string) {
	b.outcome = engine.OutcomeFailed
	b.support = stageSupport
	b.ang = 90 // Visual spin while it tumbles away
	w.logger.Debug("piece failed", "piece", b.id, "reason", reason, "x", b.pos.X(), "y", b.pos.Y())
}

// supportUnder finds the highest surface under b's footprint that was below
// b's bottom before this tick, and the horizontal span of that surface.
func (w *World) supportUnder(b *body, prevBottom float64) (top, left, right float64, support engine.PieceID, ok bool) {
	const skin = 1e-9

	hx, _ := b.extents()
	x0, x1 := b.pos.X()-hx, b.pos.X()+hx
	top = math.Inf(-1)

	if !w.stage.Empty() {
		half := w.stage.HalfWidth()
		if x1 > -half && x0 < half && w.stage.BaseY <= prevBottom+skin {
			top, left, right, support, ok = w.stage.BaseY, -half, half, stageSupport, true
		}
	}

	for _, o := range w.bodies {
		if o == b || !o.dynamic || o.outcome != engine.OutcomeResting {
			continue
		}
		ohx, _ := o.extents()
		ox0, ox1 := o.pos.X()-ohx, o.pos.X()+ohx
		otop := o.top()
		if x1 <= ox0 || x0 >= ox1 || otop > prevBottom+skin {
			continue
		}
		if otop > top {
			top, left, right, support, ok = otop, ox0, ox1, o.id, true
		}
	}
	return top, left, right, support, ok
}

// Transform implements engine.Physics.
func (w *World) Transform(id engine.PieceID) (mgl64.Vec2, float64) {
	b, ok := w.bodies[id]
	if !ok {
		return mgl64.Vec2{}, 0
	}
	return b.pos, b.rot
}

// Velocity implements engine.Physics.
func (w *World) Velocity(id engine.PieceID) (mgl64.Vec2, float64) {
	b, ok := w.bodies[id]
	if !ok {
		return mgl64.Vec2{}, 0
	}
	return b.vel, b.ang
}

// Outcome implements engine.Physics. Unknown bodies report resting.
func (w *World) Outcome(id engine.PieceID) engine.Outcome {
	b, ok := w.bodies[id]
	if !ok {
		return engine.OutcomeResting
	}
	return b.outcome
}

// Bodies returns the number of live bodies.
func (w *World) Bodies() int {
	return len(w.bodies)
}

// Extents returns a body's rotated half extents, for rendering.
func (w *World) Extents(id engine.PieceID) (hx, hy float64, ok bool) {
	b, found := w.bodies[id]
	if !found {
		return 0, 0, false
	}
	hx, hy = b.extents()
	return hx, hy, true
}

var _ engine.Physics = (*World)(nil)
