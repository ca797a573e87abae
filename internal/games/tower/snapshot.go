package tower

import (
	"math"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
)

// Snapshot is a serializable picture of an engine, sent to remote viewers and
// printed by the CLI. Uses primitive types only for stable serialization.
type Snapshot struct {
	Episode       int             `json:"episode"`
	Phase         string          `json:"phase"`
	Active        string          `json:"active"`
	Turns         int             `json:"turns"`
	Height        float64         `json:"height"`
	YOffset       float64         `json:"y_offset"`
	CameraShift   float64         `json:"camera_shift"`
	TurnRemaining float64         `json:"turn_remaining"` // -1 when the timer is disabled
	Stage         StageSnapshot   `json:"stage"`
	Pieces        []PieceSnapshot `json:"pieces"`
	Outcome       *OutcomeState   `json:"outcome,omitempty"`
}

// StageSnapshot lists the stage triangles as [x, y] vertex triples.
type StageSnapshot struct {
	TotalWidth float64         `json:"total_width"`
	BaseY      float64         `json:"base_y"`
	Triangles  [][3][2]float64 `json:"triangles"`
}

// PieceSnapshot is one piece.
type PieceSnapshot struct {
	ID       uint64  `json:"id"`
	Kind     string  `json:"kind"`
	Owner    string  `json:"owner"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Settled  bool    `json:"settled"`
	Fallen   bool    `json:"fallen"`
}

// OutcomeState is the game-over result.
type OutcomeState struct {
	Loser  string `json:"loser"`
	Winner string `json:"winner"`
	Fallen uint64 `json:"fallen"`
}

// Capture builds a snapshot of eng.
func Capture(eng *engine.Engine) Snapshot {
	snap := Snapshot{
		Episode:       eng.Episode(),
		Phase:         eng.Phase().String(),
		Active:        eng.Active().String(),
		Turns:         eng.Turns(),
		Height:        eng.Geometry().TowerHeight(),
		YOffset:       eng.YOffset(),
		CameraShift:   eng.CameraShift(),
		TurnRemaining: eng.TurnRemaining(),
	}
	if math.IsInf(snap.TurnRemaining, 1) {
		snap.TurnRemaining = -1
	}

	stage := eng.Stage()
	snap.Stage = StageSnapshot{
		TotalWidth: stage.TotalWidth,
		BaseY:      stage.BaseY,
		Triangles:  make([][3][2]float64, 0, len(stage.Triangles)),
	}
	for _, t := range stage.Triangles {
		snap.Stage.Triangles = append(snap.Stage.Triangles, [3][2]float64{
			{t.Left.X(), t.Left.Y()},
			{t.Right.X(), t.Right.Y()},
			{t.Apex.X(), t.Apex.Y()},
		})
	}

	snap.Pieces = make([]PieceSnapshot, 0, eng.Pieces().Len())
	for _, p := range eng.Pieces().All() {
		snap.Pieces = append(snap.Pieces, PieceSnapshot{
			ID:       uint64(p.ID),
			Kind:     p.Kind.String(),
			Owner:    p.Owner.String(),
			X:        p.Pos.X(),
			Y:        p.Pos.Y(),
			Rotation: p.Rotation,
			Settled:  p.Settled,
			Fallen:   p.Fallen,
		})
	}

	if out, ok := eng.Outcome(); ok {
		snap.Outcome = &OutcomeState{
			Loser:  out.Loser.String(),
			Winner: out.Winner.String(),
			Fallen: uint64(out.Fallen),
		}
	}
	return snap
}
