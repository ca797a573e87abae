package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Episode is the summary of one finished episode, either a keyboard game or
// an agent run through the environment.
type Episode struct {
	ID          int64
	EpisodeID   string // UUID assigned when the episode started
	Mode        string // "play", "env" or "selfplay"
	Opponent    string // Policy that drove the other party
	Seed        int64
	Steps       int
	Turns       int
	Pieces      int
	ForcedDrops int
	TotalReward float64
	MaxHeight   float64
	Loser       string // Empty if the episode was truncated
	EndReason   string // "fall", "truncated", "abandoned"
	Duration    time.Duration
	CreatedAt   time.Time
}

// EpisodeStats aggregates recorded episodes of one mode.
type EpisodeStats struct {
	Mode       string
	Count      int
	AvgReward  float64
	BestReward float64
	AvgTurns   float64
	MaxHeight  float64
	Falls      int
}

// SaveEpisode records a finished episode. A missing EpisodeID gets a fresh
// UUID. Returns the row ID.
func (s *Store) SaveEpisode(ep Episode) (int64, error) {
	if ep.EpisodeID == "" {
		ep.EpisodeID = uuid.NewString()
	} else if _, err := uuid.Parse(ep.EpisodeID); err != nil {
		return 0, fmt.Errorf("storage: invalid episode id %q: %w", ep.EpisodeID, err)
	}

	var loser sql.NullString
	if ep.Loser != "" {
		loser = sql.NullString{String: ep.Loser, Valid: true}
	}

	res, err := s.db.Exec(
		`INSERT INTO episodes
		 (episode_id, mode, opponent, seed, steps, turns, pieces, forced_drops,
		  total_reward, max_height, loser, end_reason, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.EpisodeID,
		ep.Mode,
		ep.Opponent,
		ep.Seed,
		ep.Steps,
		ep.Turns,
		ep.Pieces,
		ep.ForcedDrops,
		ep.TotalReward,
		ep.MaxHeight,
		loser,
		ep.EndReason,
		ep.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save episode: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const episodeColumns = `id, episode_id, mode, opponent, seed, steps, turns, pieces, forced_drops,
		        total_reward, max_height, loser, end_reason, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (Episode, error) {
	var ep Episode
	var loser sql.NullString
	var durationMs int64
	var createdAt any

	err := row.Scan(
		&ep.ID,
		&ep.EpisodeID,
		&ep.Mode,
		&ep.Opponent,
		&ep.Seed,
		&ep.Steps,
		&ep.Turns,
		&ep.Pieces,
		&ep.ForcedDrops,
		&ep.TotalReward,
		&ep.MaxHeight,
		&loser,
		&ep.EndReason,
		&durationMs,
		&createdAt,
	)
	if err != nil {
		return ep, err
	}

	ep.Loser = loser.String
	ep.Duration = time.Duration(durationMs) * time.Millisecond
	ep.CreatedAt = parseTime(createdAt)
	return ep, nil
}

// EpisodeByID retrieves an episode by its UUID. Returns nil if not found.
func (s *Store) EpisodeByID(episodeID string) (*Episode, error) {
	ep, err := scanEpisode(s.db.QueryRow(
		`SELECT `+episodeColumns+`
		 FROM episodes
		 WHERE episode_id = ?`,
		episodeID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episode: %w", err)
	}
	return &ep, nil
}

// RecentEpisodes retrieves the most recent episodes. An empty mode matches
// every mode.
func (s *Store) RecentEpisodes(mode string, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+episodeColumns+`
		 FROM episodes
		 WHERE ? = '' OR mode = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		mode, mode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var results []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// GetEpisodeStats aggregates every recorded episode of the given mode.
func (s *Store) GetEpisodeStats(mode string) (*EpisodeStats, error) {
	stats := &EpisodeStats{Mode: mode}

	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(AVG(total_reward), 0),
		        COALESCE(MAX(total_reward), 0),
		        COALESCE(AVG(turns), 0),
		        COALESCE(MAX(max_height), 0),
		        COALESCE(SUM(CASE WHEN end_reason = 'fall' THEN 1 ELSE 0 END), 0)
		 FROM episodes WHERE mode = ?`,
		mode,
	).Scan(&stats.Count, &stats.AvgReward, &stats.BestReward, &stats.AvgTurns, &stats.MaxHeight, &stats.Falls)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get episode stats: %w", err)
	}

	return stats, nil
}

// ClearEpisodes deletes the episodes of the given mode, or every episode
// when mode is empty.
func (s *Store) ClearEpisodes(mode string) error {
	if _, err := s.db.Exec("DELETE FROM episodes WHERE ? = '' OR mode = ?", mode, mode); err != nil {
		return fmt.Errorf("storage: cannot clear episodes: %w", err)
	}
	return nil
}
