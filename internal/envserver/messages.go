package envserver

import (
	"github.com/vovakirdan/tui-tower/internal/games/tower"
	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
)

// Message types.
const (
	MessageTypeSpec     = "spec"
	MessageTypeReset    = "reset"
	MessageTypeStep     = "step"
	MessageTypeSnapshot = "snapshot"
	MessageTypeError    = "error"
)

// Request is a client message.
type Request struct {
	Type     string     `json:"type"`
	Action   *ActionMsg `json:"action,omitempty"`   // step
	Seed     *int64     `json:"seed,omitempty"`     // reset: reseed the environment
	Opponent *string    `json:"opponent,omitempty"` // reset: policy ID, "none" for self-play
}

// ActionMsg is the wire form of engine.Action.
type ActionMsg struct {
	Move   float64 `json:"move"`
	Rotate float64 `json:"rotate"`
	Drop   bool    `json:"drop"`
}

func (a ActionMsg) action() engine.Action {
	return engine.Action{Move: a.Move, Rotate: a.Rotate, Drop: a.Drop}
}

// SpecMsg describes the observation and action layout.
type SpecMsg struct {
	Type      string  `json:"type"`
	Segments  int     `json:"segments"`
	HalfWidth float64 `json:"half_width"`
	MaxMove   float64 `json:"max_move"`
	MaxRotate float64 `json:"max_rotate"`
	ObsSize   int     `json:"obs_size"`
	Header    int     `json:"header"`
	Opponent  string  `json:"opponent"`
	Mode      string  `json:"mode"`
}

// ResetMsg answers a reset.
type ResetMsg struct {
	Type        string             `json:"type"`
	EpisodeID   string             `json:"episode_id"`
	Observation engine.Observation `json:"observation"`
	Done        bool               `json:"done"`
}

// StepMsg answers a step.
type StepMsg struct {
	Type      string `json:"type"`
	EpisodeID string `json:"episode_id"`
	tower.StepOutcome
}

// SnapshotMsg carries a board picture.
type SnapshotMsg struct {
	Type     string         `json:"type"`
	Snapshot tower.Snapshot `json:"snapshot"`
}

// ErrorMsg reports a failed request; the connection stays open.
type ErrorMsg struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Request string `json:"request,omitempty"`
}

func specMsg(env *tower.Env, opponent string) SpecMsg {
	info := env.Info()
	return SpecMsg{
		Type:      MessageTypeSpec,
		Segments:  info.Segments,
		HalfWidth: info.HalfWidth,
		MaxMove:   info.MaxMove,
		MaxRotate: info.MaxRotate,
		ObsSize:   info.ObsSize,
		Header:    engine.ObsHeader,
		Opponent:  opponent,
		Mode:      env.Mode(),
	}
}
