package tower

import (
	"math"
	"time"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

// Episode modes recorded in the episode log.
const (
	ModePlay     = "play"
	ModeEnv      = "env"
	ModeSelfPlay = "selfplay"
)

// End reasons recorded in the episode log.
const (
	EndFall      = "fall"
	EndTruncated = "truncated"
	EndAbandoned = "abandoned"
)

// Summary is the end-of-episode record shared by the game and the environment.
type Summary struct {
	EpisodeID   string
	Mode        string
	Opponent    string
	Seed        int64
	Steps       int
	Turns       int
	Pieces      int
	ForcedDrops int
	TotalReward float64
	MaxHeight   float64
	Loser       string
	EndReason   string
	Duration    time.Duration
}

// fill copies the engine counters and the outcome into s.
func (s *Summary) fill(sess *session) {
	eng := sess.eng
	s.Turns = eng.Turns()
	s.Pieces = eng.Pieces().Len()
	s.ForcedDrops = eng.ForcedDrops()
	s.MaxHeight = math.Max(s.MaxHeight, eng.RestingHeight())

	if out, ok := eng.Outcome(); ok {
		s.Loser = out.Loser.String()
		s.EndReason = EndFall
	} else if s.EndReason == "" {
		s.EndReason = EndAbandoned
	}
}

// Record converts the summary to a storage row.
func (s Summary) Record() storage.Episode {
	maxHeight := s.MaxHeight
	if maxHeight <= engine.FloorHeight {
		maxHeight = 0
	}
	return storage.Episode{
		EpisodeID:   s.EpisodeID,
		Mode:        s.Mode,
		Opponent:    s.Opponent,
		Seed:        s.Seed,
		Steps:       s.Steps,
		Turns:       s.Turns,
		Pieces:      s.Pieces,
		ForcedDrops: s.ForcedDrops,
		TotalReward: s.TotalReward,
		MaxHeight:   maxHeight,
		Loser:       s.Loser,
		EndReason:   s.EndReason,
		Duration:    s.Duration,
	}
}
