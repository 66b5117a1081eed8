package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handshelf/internal/app"
	"github.com/ayusman/handshelf/internal/config"
	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/hand"
	"github.com/ayusman/handshelf/internal/plugin"
	"github.com/ayusman/handshelf/internal/store"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// scriptedSource lets the test push frames once tracking starts.
type scriptedSource struct {
	mu      sync.Mutex
	deliver func(hand.Frame) bool
	started chan struct{}
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{started: make(chan struct{}, 1)}
}

func (s *scriptedSource) Start(_ context.Context, deliver func(hand.Frame) bool) error {
	s.mu.Lock()
	s.deliver = deliver
	s.mu.Unlock()
	select {
	case s.started <- struct{}{}:
	default:
	}
	return nil
}

func (s *scriptedSource) Stop() error {
	s.mu.Lock()
	s.deliver = nil
	s.mu.Unlock()
	return nil
}

func (s *scriptedSource) push(l hand.Landmarks, i int) {
	s.mu.Lock()
	d := s.deliver
	s.mu.Unlock()
	if d != nil {
		d(hand.NewFrame(l, epoch.Add(time.Duration(i)*33*time.Millisecond)))
	}
}

type eventMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Mode string  `json:"mode"`
}

func newApp(t *testing.T, mutate func(*config.Config)) (*app.App, *store.Store, *scriptedSource) {
	t.Helper()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Tray = false
	cfg.Server.Addr = ""
	cfg.Engine.Grab.HoldFrames = 2
	if mutate != nil {
		mutate(cfg)
	}

	s, err := store.New(cfg.DBPath())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	src := newScriptedSource()
	a, err := app.New(cfg, app.Options{
		Store:  s,
		Source: src,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, s, src
}

func doJSON(t *testing.T, client *http.Client, method, url, body string, out any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s status = %d: %s", method, url, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
}

// waitFor reads events until one of kind arrives.
func waitFor(t *testing.T, conn *websocket.Conn, kind string) eventMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg eventMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", kind, err)
		}
		if msg.Type == kind {
			return msg
		}
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	a, _, src := newApp(t, nil)
	ts := httptest.NewServer(a.Server(""))
	defer ts.Close()
	client := ts.Client()

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d", resp.StatusCode)
		}
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for a.Hub().Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var mode struct {
		Mode string `json:"mode"`
	}
	doJSON(t, client, http.MethodPut, ts.URL+"/api/mode", `{"mode":"browse"}`, &mode)
	if mode.Mode != "browse" {
		t.Fatalf("mode = %q, want browse", mode.Mode)
	}

	var started engine.Stats
	doJSON(t, client, http.MethodPost, ts.URL+"/api/tracking/start", "", &started)
	if !started.Running || started.SessionID == "" {
		t.Fatalf("start = %+v", started)
	}
	<-src.started

	t.Run("GrabAndRelease", func(t *testing.T) {
		fist := hand.FistLandmarks()
		for i := 0; i < 2; i++ {
			src.push(fist, i)
		}
		grab := waitFor(t, conn, "grab")
		if grab.Mode != "browse" {
			t.Errorf("grab mode = %q", grab.Mode)
		}

		// The release edge fires once the cooldown has run out.
		open := hand.OpenPalmLandmarks()
		for i := 2; i < 2+config.Default().Engine.Grab.CooldownFrames+2; i++ {
			src.push(open, i)
		}
		waitFor(t, conn, "open_hand")
	})

	var stopped engine.Stats
	doJSON(t, client, http.MethodPost, ts.URL+"/api/tracking/stop", "", &stopped)
	if stopped.Running {
		t.Errorf("stop = %+v", stopped)
	}

	t.Run("Journal", func(t *testing.T) {
		var journal struct {
			Entries []store.Entry `json:"entries"`
		}
		deadline := time.Now().Add(2 * time.Second)
		for {
			doJSON(t, client, http.MethodGet, ts.URL+"/api/journal?limit=10", "", &journal)
			if len(journal.Entries) >= 2 || time.Now().After(deadline) {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}

		kinds := make(map[string]bool)
		for _, e := range journal.Entries {
			if e.SessionID != started.SessionID {
				t.Errorf("entry session = %q, want %q", e.SessionID, started.SessionID)
			}
			kinds[e.Kind] = true
		}
		if !kinds["grab"] || !kinds["open_hand"] {
			t.Errorf("journal kinds = %v, want grab and open_hand", kinds)
		}
		if kinds["cursor_move"] {
			t.Error("cursor moves were journaled")
		}
	})
}

func TestE2E_ScanModeGrabsOnPinch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	a, s, src := newApp(t, nil)
	ts := httptest.NewServer(a.Server(""))
	defer ts.Close()
	client := ts.Client()

	var status engine.Stats
	doJSON(t, client, http.MethodPost, ts.URL+"/api/tracking/start", "", &status)
	<-src.started

	// A fist is not a grab in scan mode; a pinch is.
	for i := 0; i < 3; i++ {
		src.push(hand.FistLandmarks(), i)
	}
	for i := 3; i < 5; i++ {
		src.push(hand.PinchLandmarks(), i)
	}

	doJSON(t, client, http.MethodPut, ts.URL+"/api/mode", `{"mode":"browse"}`, nil)
	doJSON(t, client, http.MethodPost, ts.URL+"/api/tracking/stop", "", nil)
	a.Close()

	entries, err := s.Journal().BySession(status.SessionID)
	if err != nil {
		t.Fatalf("BySession() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "grab" || entries[0].Mode != "scan" {
		t.Errorf("entries = %+v, want one scan grab", entries)
	}

	value, err := s.Settings().Get(store.SettingMode)
	if err != nil || value != "browse" {
		t.Errorf("persisted mode = %q, %v", value, err)
	}
}

func TestE2E_ActionBinding(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "request.json")
	dir := filepath.Join(pluginDir, "recorder")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "plugin.json"),
		[]byte(`{"name":"recorder","executable":"run.sh","actions":["record"]}`), 0o644)
	os.WriteFile(filepath.Join(dir, "run.sh"),
		[]byte("#!/bin/sh\ncat > '"+out+"'\necho '{\"success\":true}'\n"), 0o755)

	browse := gesture.ModeBrowse
	a, _, src := newApp(t, func(cfg *config.Config) {
		cfg.Engine.DefaultMode = gesture.ModeBrowse
		cfg.Actions.Dir = pluginDir
		cfg.Actions.Bindings = []plugin.Binding{
			{Gesture: gesture.KindGrab, Mode: &browse, Plugin: "recorder", Action: "record", Params: map[string]any{"shelf": 3}},
		}
	})

	if err := a.StartTracking(context.Background()); err != nil {
		t.Fatalf("StartTracking() error = %v", err)
	}
	<-src.started
	for i := 0; i < 2; i++ {
		src.push(hand.FistLandmarks(), i)
	}

	var data []byte
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(out); err == nil && json.Valid(b) {
			data = b
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if data == nil {
		t.Fatal("bound action did not run")
	}

	var req plugin.Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.Gesture != "grab" || req.Mode != "browse" || string(req.Params) != `{"shelf":3}` {
		t.Errorf("request = %+v", req)
	}
}
