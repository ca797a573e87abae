package envserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	_ "github.com/vovakirdan/tui-tower/internal/games/tower/policy"
	"github.com/vovakirdan/tui-tower/internal/storage"
)

func startServer(t *testing.T, cfg Config, store *storage.Store) *httptest.Server {
	t.Helper()
	srv, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/env"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// roundTrip sends req and decodes the reply into out, returning its type.
func roundTrip(t *testing.T, conn *websocket.Conn, req string, out any) string {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		t.Fatalf("Bad reply %s: %v", data, err)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("Cannot decode %s: %v", data, err)
		}
	}
	return head.Type
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Opponent = "idle"
	cfg.Seed = 5
	return cfg
}

func TestNewRejectsUnknownOpponent(t *testing.T) {
	cfg := testConfig()
	cfg.Opponent = "nobody"
	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("Expected error for unknown opponent")
	}
}

func TestHealth(t *testing.T) {
	ts := startServer(t, testConfig(), nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestSpecResetStep(t *testing.T) {
	ts := startServer(t, testConfig(), nil)
	conn := dial(t, ts)

	var errMsg ErrorMsg
	if typ := roundTrip(t, conn, `{"type":"step","action":{"move":0.1}}`, &errMsg); typ != MessageTypeError {
		t.Fatalf("Step before reset replied %q", typ)
	}
	if errMsg.Request != MessageTypeStep {
		t.Errorf("Error request = %q", errMsg.Request)
	}

	var reset ResetMsg
	if typ := roundTrip(t, conn, `{"type":"reset"}`, &reset); typ != MessageTypeReset {
		t.Fatalf("Reset replied %q", typ)
	}
	if reset.EpisodeID == "" || len(reset.Observation) == 0 || reset.Done {
		t.Errorf("Reset = %+v", reset)
	}

	var spec SpecMsg
	if typ := roundTrip(t, conn, `{"type":"spec"}`, &spec); typ != MessageTypeSpec {
		t.Fatalf("Spec replied %q", typ)
	}
	if spec.ObsSize != len(reset.Observation) || spec.Segments != 15 || spec.Opponent != "idle" || spec.Mode != "env" {
		t.Errorf("Spec = %+v", spec)
	}

	var step StepMsg
	if typ := roundTrip(t, conn, `{"type":"step","action":{"move":0.1}}`, &step); typ != MessageTypeStep {
		t.Fatalf("Step replied %q", typ)
	}
	if step.EpisodeID != reset.EpisodeID || step.Done || step.Reward <= 0 {
		t.Errorf("Step = %+v", step)
	}
	if !step.Info.Applied {
		t.Error("Action was not applied")
	}

	var snap SnapshotMsg
	if typ := roundTrip(t, conn, `{"type":"snapshot"}`, &snap); typ != MessageTypeSnapshot {
		t.Fatalf("Snapshot replied %q", typ)
	}
	if snap.Snapshot.Active != "agent" || len(snap.Snapshot.Pieces) != 2 {
		t.Errorf("Snapshot = %+v", snap.Snapshot)
	}

	if typ := roundTrip(t, conn, `{"type":"dance"}`, nil); typ != MessageTypeError {
		t.Errorf("Unknown type replied %q", typ)
	}
	if typ := roundTrip(t, conn, `not json`, nil); typ != MessageTypeError {
		t.Errorf("Malformed request replied %q", typ)
	}
}

func TestEpisodeRecorded(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "env.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	ts := startServer(t, testConfig(), store)
	conn := dial(t, ts)

	var reset ResetMsg
	roundTrip(t, conn, `{"type":"reset"}`, &reset)

	// Tilt the piece past the limit and drop it.
	for i := 0; i < 5; i++ {
		roundTrip(t, conn, `{"type":"step","action":{"rotate":90}}`, nil)
	}
	var step StepMsg
	roundTrip(t, conn, `{"type":"step","action":{"drop":true}}`, &step)
	if !step.Done || step.Reward != -5 {
		t.Fatalf("Final step = %+v, want fall", step)
	}

	ep, err := store.EpisodeByID(reset.EpisodeID)
	if err != nil {
		t.Fatalf("EpisodeByID failed: %v", err)
	}
	if ep == nil {
		t.Fatal("Episode not recorded")
	}
	if ep.EndReason != "fall" || ep.Steps != 6 || ep.Opponent != "idle" || ep.Loser != "agent" {
		t.Errorf("Recorded episode = %+v", ep)
	}

	// A reset after a recorded episode must not record it again.
	roundTrip(t, conn, `{"type":"reset"}`, nil)
	eps, _ := store.RecentEpisodes("", 10)
	if len(eps) != 1 {
		t.Errorf("Expected 1 recorded episode, got %d", len(eps))
	}

	resp, err := http.Get(ts.URL + "/episodes?mode=env")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	var listed []storage.Episode
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(listed) != 1 || listed[0].EpisodeID != reset.EpisodeID {
		t.Errorf("Listed episodes = %+v", listed)
	}
}

func TestSelfPlayReset(t *testing.T) {
	ts := startServer(t, testConfig(), nil)
	conn := dial(t, ts)

	var reset ResetMsg
	if typ := roundTrip(t, conn, `{"type":"reset","opponent":"none","seed":3}`, &reset); typ != MessageTypeReset {
		t.Fatalf("Reset replied %q", typ)
	}

	var spec SpecMsg
	roundTrip(t, conn, `{"type":"spec"}`, &spec)
	if spec.Mode != "selfplay" || spec.Opponent != "none" {
		t.Errorf("Spec = %+v", spec)
	}

	var errMsg ErrorMsg
	if typ := roundTrip(t, conn, `{"type":"reset","opponent":"nobody"}`, &errMsg); typ != MessageTypeError {
		t.Errorf("Unknown opponent replied %q", typ)
	}
}
