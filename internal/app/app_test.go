package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handshelf/internal/capture"
	"github.com/ayusman/handshelf/internal/config"
	"github.com/ayusman/handshelf/internal/detector"
	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/hand"
	"github.com/ayusman/handshelf/internal/store"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource hands the deliver callback to the test.
type fakeSource struct {
	mu       sync.Mutex
	deliverF func(hand.Frame) bool
	startErr error
}

func (s *fakeSource) Start(_ context.Context, deliver func(hand.Frame) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.deliverF = deliver
	return nil
}

func (s *fakeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverF = nil
	return nil
}

func (s *fakeSource) deliver(l hand.Landmarks, i int) bool {
	s.mu.Lock()
	d := s.deliverF
	s.mu.Unlock()
	if d == nil {
		return false
	}
	return d(hand.NewFrame(l, epoch.Add(time.Duration(i)*33*time.Millisecond)))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Tray = false
	cfg.Server.Addr = ""
	cfg.Engine.Grab.HoldFrames = 2
	return cfg
}

func openStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.New(cfg.DBPath())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, cfg *config.Config, st *store.Store, src engine.Source) *App {
	t.Helper()
	a, err := New(cfg, Options{Store: st, Source: src, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApp_JournalsDiscreteGestures(t *testing.T) {
	cfg := testConfig(t)
	st := openStore(t, cfg)
	src := &fakeSource{}
	a := newTestApp(t, cfg, st, src)

	if err := a.SetMode(gesture.ModeBrowse); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if err := a.StartTracking(context.Background()); err != nil {
		t.Fatalf("StartTracking() error = %v", err)
	}
	session := a.Status().SessionID
	if session == "" {
		t.Fatal("no session ID while running")
	}

	for i := 0; i < 3; i++ {
		src.deliver(hand.FistLandmarks(), i)
	}
	if err := a.StopTracking(); err != nil {
		t.Fatalf("StopTracking() error = %v", err)
	}
	// Close flushes the journal writer.
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := st.Journal().BySession(session)
	if err != nil {
		t.Fatalf("BySession() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want one grab", entries)
	}
	if entries[0].Kind != "grab" || entries[0].Mode != "browse" {
		t.Errorf("entry = %+v", entries[0])
	}
	if !entries[0].OccurredAt.Equal(epoch.Add(33 * time.Millisecond)) {
		t.Errorf("occurred at %v", entries[0].OccurredAt)
	}

	sess, err := st.Journal().Session(session)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.Mode != "browse" || sess.StoppedAt == nil {
		t.Errorf("session = %+v, want closed browse session", sess)
	}
}

func TestApp_StartFailureDiscardsSession(t *testing.T) {
	cfg := testConfig(t)
	st := openStore(t, cfg)
	src := &fakeSource{startErr: errors.New("camera busy")}
	a := newTestApp(t, cfg, st, src)

	err := a.StartTracking(context.Background())
	if err == nil {
		t.Fatal("StartTracking() error = nil")
	}
	if a.Status().Running {
		t.Error("engine running after failed start")
	}

	var sessions int
	if err := st.DB().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessions != 0 {
		t.Errorf("sessions = %d, want 0 after failed start", sessions)
	}
}

func TestApp_MissingDetectorFailsStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Detector.Script = filepath.Join(t.TempDir(), "missing.py")
	st := openStore(t, cfg)
	a := newTestApp(t, cfg, st, nil)

	err := a.StartTracking(context.Background())
	if !errors.Is(err, detector.ErrScriptNotFound) {
		t.Fatalf("StartTracking() error = %v, want ErrScriptNotFound", err)
	}
	if a.Engine().Running() {
		t.Error("engine running without a pose detector")
	}

	var sessions int
	if err := st.DB().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessions != 0 {
		t.Errorf("sessions = %d, want 0", sessions)
	}
}

func TestApp_MockFallbackIsOptIn(t *testing.T) {
	cfg := testConfig(t)
	cfg.Detector.Script = filepath.Join(t.TempDir(), "missing.py")
	cfg.Detector.MockFallback = true
	a := newTestApp(t, cfg, nil, nil)

	// Only builds the pipeline; nothing opens the camera.
	src, err := a.newSource()
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}
	if _, ok := src.(*capture.LandmarkSource); !ok {
		t.Errorf("newSource() = %T, want *capture.LandmarkSource", src)
	}
}

func TestApp_ModeIsPersisted(t *testing.T) {
	cfg := testConfig(t)
	st := openStore(t, cfg)

	first, err := New(cfg, Options{Store: st, Source: &fakeSource{}, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if first.Engine().Mode() != gesture.ModeScan {
		t.Fatalf("initial mode = %v, want scan", first.Engine().Mode())
	}
	if err := first.SetMode(gesture.ModeBrowse); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	first.Close()

	second := newTestApp(t, cfg, st, &fakeSource{})
	if second.Engine().Mode() != gesture.ModeBrowse {
		t.Errorf("restored mode = %v, want browse", second.Engine().Mode())
	}

	if err := second.SetMode(gesture.Mode(7)); err == nil {
		t.Error("SetMode() accepted an unknown mode")
	}
}

func TestApp_WithoutStore(t *testing.T) {
	src := &fakeSource{}
	a := newTestApp(t, testConfig(t), nil, src)

	if err := a.StartTracking(context.Background()); err != nil {
		t.Fatalf("StartTracking() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		src.deliver(hand.PinchLandmarks(), i)
	}
	if got := a.Status().Processed; got != 3 {
		t.Errorf("processed = %d, want 3", got)
	}
	if err := a.SetMode(gesture.ModeBrowse); err != nil {
		t.Errorf("SetMode() error = %v", err)
	}
}

func TestApp_Hooks(t *testing.T) {
	src := &fakeSource{}
	a := newTestApp(t, testConfig(t), nil, src)

	var last []string
	var statuses []engine.Stats
	a.OnLastGesture(func(name string) { last = append(last, name) })
	a.OnStatus(func(st engine.Stats) { statuses = append(statuses, st) })

	if err := a.StartTracking(context.Background()); err != nil {
		t.Fatalf("StartTracking() error = %v", err)
	}
	// A second start is a no-op and reports nothing.
	if err := a.StartTracking(context.Background()); err != nil {
		t.Fatalf("StartTracking() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		src.deliver(hand.PinchLandmarks(), i)
	}
	a.SetMode(gesture.ModeBrowse)
	a.StopTracking()
	a.StopTracking()

	if len(last) != 1 || last[0] != "grab" {
		t.Errorf("last gestures = %v, want [grab]", last)
	}
	if len(statuses) != 3 {
		t.Fatalf("status callbacks = %d, want 3", len(statuses))
	}
	if !statuses[0].Running || statuses[1].Mode != gesture.ModeBrowse || statuses[2].Running {
		t.Errorf("statuses = %+v", statuses)
	}
}

func TestApp_ServerControlsTracking(t *testing.T) {
	cfg := testConfig(t)
	st := openStore(t, cfg)
	a := newTestApp(t, cfg, st, &fakeSource{})

	ts := httptest.NewServer(a.Server(""))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/tracking/start", "application/json", nil)
	if err != nil {
		t.Fatalf("POST start: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	if !a.Status().Running {
		t.Error("tracking not running after POST /api/tracking/start")
	}

	resp, err = http.Get(ts.URL + "/api/journal")
	if err != nil {
		t.Fatalf("GET journal: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("journal status = %d", resp.StatusCode)
	}
}

func TestApp_RunReturnsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Addr = "127.0.0.1:0"
	a := newTestApp(t, cfg, nil, &fakeSource{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, "") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestUIURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"0.0.0.0:9000", "http://localhost:9000/"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"[::]:8080", "http://localhost:8080/"},
		{"example", "http://example/"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := uiURL(tt.addr); got != tt.want {
				t.Errorf("uiURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func TestApp_CameraPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testConfig(t)
	cfg.Camera.MotionGate = false
	cfg.Camera.ActiveFPS = 100
	cfg.Engine.DefaultMode = gesture.ModeBrowse

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	det.SetLandmarks(hand.FistLandmarks())
	src := capture.NewLandmarkSource(cam, det, cfg.Camera, quietLogger())

	a := newTestApp(t, cfg, nil, src)
	grabs := make(chan struct{}, 8)
	a.Engine().OnGrab(func() {
		select {
		case grabs <- struct{}{}:
		default:
		}
	})

	if err := a.StartTracking(context.Background()); err != nil {
		t.Fatalf("StartTracking() error = %v", err)
	}

	select {
	case <-grabs:
	case <-time.After(3 * time.Second):
		t.Fatal("no grab from the camera pipeline")
	}

	if err := a.StopTracking(); err != nil {
		t.Fatalf("StopTracking() error = %v", err)
	}
	if cam.IsOpen() {
		t.Error("camera still open after StopTracking")
	}
	if !det.Closed() {
		t.Error("detector not closed after StopTracking")
	}
}
