// Package engine implements the tower stacking turn engine: stage generation,
// the piece registry, tower geometry queries, the two-party turn state machine
// and the observation/action/reward contract used by automated controllers.
//
// The package contains no rendering or rigid-body code. Physics and
// presentation are reached through the Physics and View interfaces so the
// whole engine can be driven tick by tick from tests.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. These abort the operation that hit them and leave
// existing engine state untouched.
var (
	ErrNoPieceKinds     = errors.New("engine: no piece kinds configured")
	ErrNoStageGenerator = errors.New("engine: no stage generator")
	ErrInvalidStage     = errors.New("engine: invalid stage parameters")
)

// IsConfigurationError reports whether err is one of the fatal configuration errors.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNoPieceKinds) ||
		errors.Is(err, ErrNoStageGenerator) ||
		errors.Is(err, ErrInvalidStage)
}

// Party identifies who controls the piece being placed.
type Party int

const (
	PartyPlayer Party = iota // Human at the keyboard
	PartyAgent               // Automated policy
)

// Other returns the opposing party.
func (p Party) Other() Party {
	if p == PartyPlayer {
		return PartyAgent
	}
	return PartyPlayer
}

// String returns a human-readable name for the party.
func (p Party) String() string {
	switch p {
	case PartyPlayer:
		return "player"
	case PartyAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// ParseParty parses "player" or "agent".
func ParseParty(s string) (Party, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "human", "":
		return PartyPlayer, nil
	case "agent", "cpu", "ai":
		return PartyAgent, nil
	default:
		return PartyPlayer, fmt.Errorf("engine: unknown party %q", s)
	}
}

// Phase is the turn engine state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSpawning
	PhaseAwaitingAction
	PhaseSettling
	PhaseTurnComplete
	PhaseGameOver
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSpawning:
		return "spawning"
	case PhaseAwaitingAction:
		return "awaiting-action"
	case PhaseSettling:
		return "settling"
	case PhaseTurnComplete:
		return "turn-complete"
	case PhaseGameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// Kind is the closed set of piece shapes. Dimensions and glyphs are looked up
// by Kind elsewhere; the engine only cares about identity.
type Kind int

const (
	KindCube Kind = iota
	KindPlank
	KindPillar
	KindSlab
	KindWedge
)

// AllKinds lists every piece kind in index order.
var AllKinds = []Kind{KindCube, KindPlank, KindPillar, KindSlab, KindWedge}

// DefaultKinds is the three-piece set used unless configured otherwise.
var DefaultKinds = []Kind{KindCube, KindPlank, KindPillar}

// String returns the config name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCube:
		return "cube"
	case KindPlank:
		return "plank"
	case KindPillar:
		return "pillar"
	case KindSlab:
		return "slab"
	case KindWedge:
		return "wedge"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name as used in config files.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		if k.String() == name {
			return k, nil
		}
	}
	return KindCube, fmt.Errorf("engine: unknown piece kind %q", s)
}

// Banner selects the game-over message shown by the view.
type Banner int

const (
	BannerGeneric Banner = iota
	BannerWin            // Player won: the agent's turn toppled the tower
	BannerLose           // Player lost
)

// GameOutcome describes a finished episode.
type GameOutcome struct {
	Loser  Party
	Winner Party
	Banner Banner
	Fallen PieceID // First piece reported as failed
}
