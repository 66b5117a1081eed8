package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/store"
)

type stubController struct {
	running bool
	mode    gesture.Mode
}

func (c *stubController) StartTracking(context.Context) error {
	c.running = true
	return nil
}

func (c *stubController) StopTracking() error {
	c.running = false
	return nil
}

func (c *stubController) SetMode(m gesture.Mode) error {
	c.mode = m
	return nil
}

func (c *stubController) Status() engine.Stats {
	return engine.Stats{Running: c.running, Mode: c.mode}
}

type stubJournal struct{}

func (stubJournal) Recent(int) ([]store.Entry, error) { return nil, nil }

func TestServer_Health(t *testing.T) {
	ctrl := &stubController{running: true}
	s := New(Config{Controller: ctrl, Logger: quietLogger()})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("status = %v", response["status"])
	}
	if _, ok := response["uptime"]; !ok {
		t.Error("missing uptime")
	}
	if response["tracking"] != true {
		t.Errorf("tracking = %v, want true", response["tracking"])
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s /api/health = %d", method, rec.Code)
		}
	}
}

func TestServer_Routes(t *testing.T) {
	full := New(Config{
		Controller: &stubController{},
		Journal:    stubJournal{},
		Logger:     quietLogger(),
	})
	bare := New(Config{Logger: quietLogger()})

	tests := []struct {
		path     string
		wantFull int
		wantBare int
	}{
		{"/api/tracking", http.StatusOK, http.StatusNotFound},
		{"/api/mode", http.StatusOK, http.StatusNotFound},
		{"/api/journal", http.StatusOK, http.StatusNotFound},
		{"/api/nonexistent", http.StatusNotFound, http.StatusNotFound},
		{"/", http.StatusNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			full.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantFull {
				t.Errorf("with collaborators: status = %d, want %d", rec.Code, tt.wantFull)
			}

			rec = httptest.NewRecorder()
			bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantBare {
				t.Errorf("without collaborators: status = %d, want %d", rec.Code, tt.wantBare)
			}
		})
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>shelf</body></html>"
	script := "const ws = new WebSocket('/api/events');"
	os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644)
	os.WriteFile(filepath.Join(dir, "app.js"), []byte(script), 0o644)

	s := New(Config{StaticDir: dir, Controller: &stubController{}, Logger: quietLogger()})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, index},
		{"/app.js", http.StatusOK, script},
		{"/missing.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}

	// API routes win over the file server.
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mode", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/api/mode with static dir = %d", rec.Code)
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	hub := NewEventHub(quietLogger())
	s := New(Config{Hub: hub, Logger: quietLogger()})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err = http.Get("http://" + addr + "/api/health"); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}

	if hub.Clients() != 0 {
		t.Errorf("hub clients = %d after shutdown", hub.Clients())
	}
}

func TestServer_ListenAndServe_BadAddr(t *testing.T) {
	s := New(Config{Logger: quietLogger()})
	if err := s.ListenAndServe(context.Background(), "256.0.0.1:bad"); err == nil {
		t.Error("ListenAndServe() error = nil")
	}
}

func TestServer_RejectsForeignOrigin(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		origin string
		want   int
	}{
		{"form post from another site", http.MethodPost, "/api/tracking/start", "http://evil.example", http.StatusForbidden},
		{"mode switch from another site", http.MethodPut, "/api/mode", "https://evil.example", http.StatusForbidden},
		{"journal read from another site", http.MethodGet, "/api/journal", "http://evil.example", http.StatusForbidden},
		{"other port on the same host", http.MethodPost, "/api/tracking/start", "http://example.com:9999", http.StatusForbidden},
		{"sandboxed page", http.MethodPost, "/api/tracking/start", "null", http.StatusForbidden},
		{"own ui", http.MethodPost, "/api/tracking/start", "http://example.com", http.StatusOK},
		{"no origin", http.MethodPost, "/api/tracking/start", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &stubController{}
			s := New(Config{Controller: ctrl, Journal: stubJournal{}, Logger: quietLogger()})

			// httptest requests target Host example.com.
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"mode":"browse"}`))
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden && (ctrl.running || ctrl.mode != gesture.ModeScan) {
				t.Errorf("rejected request reached the controller: %+v", ctrl)
			}
		})
	}
}
