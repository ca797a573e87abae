package engine

import "github.com/go-gl/mathgl/mgl64"

// Outcome is the physics collaborator's classification of a body.
type Outcome int

const (
	OutcomeResting Outcome = iota // At rest (or still held by a controller)
	OutcomeFalling                // In free fall, not yet resolved
	OutcomeFailed                 // Fell off the stage or toppled
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeResting:
		return "resting"
	case OutcomeFalling:
		return "falling"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Physics is the rigid-body collaborator. The engine writes transforms of
// the controlled piece, issues drops, and polls outcomes; it never simulates.
type Physics interface {
	// LoadStage replaces the static ground geometry.
	LoadStage(stage Silhouette)

	// Spawn creates a kinematic body for p at its current transform.
	Spawn(p *Piece)

	// SetTransform moves a kinematic body.
	SetTransform(id PieceID, pos mgl64.Vec2, rotation float64)

	// Drop turns a kinematic body into a free body.
	Drop(id PieceID)

	// Remove destroys a body.
	Remove(id PieceID)

	// Advance integrates the world by dt seconds.
	Advance(dt float64)

	// Transform returns the body's current transform.
	Transform(id PieceID) (pos mgl64.Vec2, rotation float64)

	// Velocity returns linear velocity and angular speed (deg/s).
	Velocity(id PieceID) (linear mgl64.Vec2, angular float64)

	// Outcome classifies the body.
	Outcome(id PieceID) Outcome
}

// View is the rendering/UI collaborator. All calls are fire-and-forget.
type View interface {
	ShiftCamera(dy float64)
	ResetCamera()
	SetPieceVisible(id PieceID, visible bool)
	SetTurnIndicator(active Party)
	SetRotateEnabled(enabled bool)
	ShowGameOver(outcome GameOutcome)
	HideGameOver()
}

// NopView ignores every request.
type NopView struct{}

func (NopView) ShiftCamera(float64) {}
func (NopView) ResetCamera() {}
func (NopView) SetPieceVisible(PieceID, bool) {}
func (NopView) SetTurnIndicator(Party) {}
func (NopView) SetRotateEnabled(bool) {}
func (NopView) ShowGameOver(GameOutcome) {}
func (NopView) HideGameOver() {}

var _ View = NopView{}
