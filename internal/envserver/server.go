// Package envserver exposes the tower environment to remote learners over a
// JSON websocket protocol.
package envserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-tower/internal/config"
	"github.com/vovakirdan/tui-tower/internal/games/tower"
	"github.com/vovakirdan/tui-tower/internal/registry"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

// OpponentNone selects self-play.
const OpponentNone = "none"

const (
	DefaultPingInterval = 20 * time.Second
	writeWait           = 5 * time.Second
)

// Config holds the server settings.
type Config struct {
	Address      string
	Tower        config.TowerConfig
	Opponent     string // Default policy ID; OpponentNone for self-play
	Seed         int64  // Base seed; each connection gets Seed+n
	MaxSteps     int
	PingInterval time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	tc := config.DefaultTowerConfig()
	return Config{
		Address:      ":8765",
		Tower:        tc,
		Opponent:     tc.Agent.Opponent,
		Seed:         1,
		MaxSteps:     1000,
		PingInterval: DefaultPingInterval,
	}
}

// Server serves environments, one per websocket connection.
type Server struct {
	cfg      Config
	store    *storage.Store
	logger   *log.Logger
	upgrader websocket.Upgrader

	conns   atomic.Int64
	active  atomic.Int64
	httpSrv *http.Server
}

// New creates a server. store may be nil to skip episode persistence.
func New(cfg Config, store *storage.Store, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := cfg.Tower.Validate(); err != nil {
		return nil, err
	}
	if cfg.Opponent != OpponentNone && !registry.Exists(cfg.Opponent) {
		return nil, fmt.Errorf("%w: unknown opponent %q", config.ErrInvalidConfig, cfg.Opponent)
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	return &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Handler returns the HTTP routes: /env (websocket), /healthz and /episodes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/env", s.HandleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/episodes", s.handleEpisodes)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting environment server", "address", s.cfg.Address, "opponent", s.cfg.Opponent)
		errc <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("envserver: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Best-effort response
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": s.active.Load(),
	})
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "episode log disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	eps, err := s.store.RecentEpisodes(r.URL.Query().Get("mode"), limit)
	if err != nil {
		s.logger.Error("cannot list episodes", "error", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Best-effort response
	json.NewEncoder(w).Encode(eps)
}

// HandleWS upgrades the request and runs an environment session on it.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	n := s.conns.Add(1)
	s.active.Add(1)
	defer s.active.Add(-1)

	sess := &connSession{
		srv:      s,
		out:      NewSafeWriter(conn),
		conn:     conn,
		seed:     s.cfg.Seed + n - 1,
		opponent: s.cfg.Opponent,
		logger:   s.logger.With("conn", n, "remote", r.RemoteAddr),
	}
	sess.run(r.Context())
}

// connSession is the state of one websocket connection.
type connSession struct {
	srv      *Server
	out      *SafeWriter
	conn     *websocket.Conn
	env      *tower.Env
	seed     int64
	opponent string
	recorded string // Last episode written to the store
	logger   *log.Logger
}

func (c *connSession) run(ctx context.Context) {
	c.logger.Info("session started")
	defer func() {
		c.finish(tower.EndAbandoned)
		c.out.Close()
		c.logger.Info("session ended")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.keepalive(ctx)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.sendError("", fmt.Errorf("bad request: %w", err))
			continue
		}
		if err := c.handle(req); err != nil {
			c.sendError(req.Type, err)
		}
	}
}

// keepalive pings the client until ctx ends.
func (c *connSession) keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.srv.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.out.WritePing(time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

func (c *connSession) handle(req Request) error {
	switch req.Type {
	case MessageTypeSpec:
		env, err := c.ensureEnv()
		if err != nil {
			return err
		}
		return c.out.WriteJSON(specMsg(env, c.opponent))

	case MessageTypeReset:
		return c.reset(req)

	case MessageTypeStep:
		if req.Action == nil {
			return errors.New("step without action")
		}
		if c.env == nil {
			return tower.ErrNotStarted
		}
		out, err := c.env.Step(req.Action.action())
		if err != nil {
			return err
		}
		if out.Done || out.Truncated {
			c.finish("")
		}
		return c.out.WriteJSON(StepMsg{
			Type:        MessageTypeStep,
			EpisodeID:   c.env.EpisodeID(),
			StepOutcome: out,
		})

	case MessageTypeSnapshot:
		if c.env == nil {
			return tower.ErrNotStarted
		}
		return c.out.WriteJSON(SnapshotMsg{Type: MessageTypeSnapshot, Snapshot: c.env.Snapshot()})

	default:
		return fmt.Errorf("unknown message type %q", req.Type)
	}
}

func (c *connSession) reset(req Request) error {
	rebuild := c.env == nil
	if req.Seed != nil && *req.Seed != c.seed {
		c.seed = *req.Seed
		rebuild = true
	}
	if req.Opponent != nil && *req.Opponent != c.opponent {
		if *req.Opponent != OpponentNone && !registry.Exists(*req.Opponent) {
			return fmt.Errorf("unknown opponent %q", *req.Opponent)
		}
		c.opponent = *req.Opponent
		rebuild = true
	}

	c.finish(tower.EndAbandoned)
	if rebuild {
		c.env = nil
	}
	env, err := c.ensureEnv()
	if err != nil {
		return err
	}

	obs, err := env.Reset()
	if err != nil {
		return err
	}
	c.logger.Debug("episode reset", "episode_id", env.EpisodeID(), "seed", c.seed)
	return c.out.WriteJSON(ResetMsg{
		Type:        MessageTypeReset,
		EpisodeID:   env.EpisodeID(),
		Observation: obs,
		Done:        env.Done(),
	})
}

func (c *connSession) ensureEnv() (*tower.Env, error) {
	if c.env != nil {
		return c.env, nil
	}
	opts := tower.EnvOptions{Seed: c.seed, MaxSteps: c.srv.cfg.MaxSteps}
	if c.opponent != OpponentNone {
		p, err := registry.Create(c.opponent, c.seed)
		if err != nil {
			return nil, err
		}
		opts.Opponent = p
	}
	env, err := tower.NewEnv(c.srv.cfg.Tower, opts, c.logger)
	if err != nil {
		return nil, err
	}
	c.env = env
	return env, nil
}

// finish records the current episode once. An unfinished episode with at
// least one step is recorded with reason; an empty reason skips it.
func (c *connSession) finish(reason string) {
	if c.env == nil {
		return
	}
	id := c.env.EpisodeID()
	if id == "" || id == c.recorded {
		return
	}
	sum := c.env.Summary()
	if !c.env.Done() {
		if reason == "" || sum.Steps == 0 {
			return
		}
		sum.EndReason = reason
	}
	c.recorded = id

	c.logger.Info("episode finished",
		"episode_id", sum.EpisodeID,
		"steps", sum.Steps,
		"reward", sum.TotalReward,
		"end", sum.EndReason,
	)
	if c.srv.store != nil {
		if _, err := c.srv.store.SaveEpisode(sum.Record()); err != nil {
			c.logger.Warn("cannot save episode", "error", err)
		}
	}
}

func (c *connSession) sendError(reqType string, err error) {
	c.logger.Debug("request failed", "type", reqType, "error", err)
	if werr := c.out.WriteJSON(ErrorMsg{Type: MessageTypeError, Error: err.Error(), Request: reqType}); werr != nil {
		c.logger.Debug("cannot send error", "error", werr)
	}
}
