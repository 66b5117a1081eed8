// Package engine owns one gesture tracking session at a time: it starts
// and stops the landmark source, runs every frame through the gesture
// tracker and fans the results out to subscribers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/hand"
)

// ErrNoSource is returned by Start when no landmark source is given.
var ErrNoSource = errors.New("no landmark source")

// Source delivers landmark frames. Start acquires the camera and pose
// estimator and begins calling deliver, one frame at a time, until Stop.
// deliver reports whether the frame was accepted.
type Source interface {
	Start(ctx context.Context, deliver func(hand.Frame) bool) error
	Stop() error
}

// Stats is a snapshot of engine counters for the current session.
type Stats struct {
	Running   bool         `json:"running"`
	SessionID string       `json:"session_id,omitempty"`
	Mode      gesture.Mode `json:"mode"`
	Processed uint64       `json:"processed"`
	Dropped   uint64       `json:"dropped"`
	Absent    uint64       `json:"absent"`
	Malformed uint64       `json:"malformed"`
}

// Engine is the gesture and cursor engine.
type Engine struct {
	cfg    gesture.Config
	logger *slog.Logger

	// mu serializes Start and Stop.
	mu     sync.Mutex
	source Source

	// stateMu guards the session state. It is never held while handlers
	// run, so handlers may call Stats, Running and SessionID.
	stateMu    sync.Mutex
	tracker    *gesture.Tracker
	scratch    []gesture.Output
	sessionID  string
	running    bool
	generation atomic.Uint64

	busy atomic.Bool
	mode atomic.Int32
	subs subscribers

	processed atomic.Uint64
	dropped   atomic.Uint64
	absent    atomic.Uint64
	malformed atomic.Uint64
}

// New creates a stopped Engine. A nil logger uses slog.Default().
func New(cfg gesture.Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
	}
	e.mode.Store(int32(cfg.DefaultMode))
	return e, nil
}

// Start begins a tracking session on src with fresh state and a new
// session ID. Starting a running engine is a no-op. If the source fails
// to start, the engine is left stopped.
func (e *Engine) Start(ctx context.Context, src Source) error {
	return e.StartSession(ctx, src, uuid.NewString())
}

// StartSession is Start with a caller-chosen session ID.
func (e *Engine) StartSession(ctx context.Context, src Source, session string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source != nil {
		return nil
	}
	if src == nil {
		return ErrNoSource
	}

	cfg := e.cfg
	cfg.DefaultMode = e.Mode()

	e.stateMu.Lock()
	e.tracker = gesture.NewTracker(cfg)
	e.sessionID = session
	e.generation.Add(1)
	e.stateMu.Unlock()
	e.resetCounters()

	if err := src.Start(ctx, e.HandleFrame); err != nil {
		e.discard()
		e.logger.Error("landmark source failed to start", "error", err)
		return fmt.Errorf("start landmark source: %w", err)
	}

	e.source = src
	e.stateMu.Lock()
	e.running = true
	e.stateMu.Unlock()
	e.logger.Info("tracking started", "session", session, "mode", cfg.DefaultMode)
	return nil
}

// Stop ends the session, releases the source and discards all gesture
// state. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return nil
	}

	src := e.source
	e.source = nil
	session := e.SessionID()
	e.discard()

	err := src.Stop()
	e.logger.Info("tracking stopped",
		"session", session,
		"processed", e.processed.Load(),
		"dropped", e.dropped.Load(),
	)
	if err != nil {
		return fmt.Errorf("stop landmark source: %w", err)
	}
	return nil
}

func (e *Engine) discard() {
	e.stateMu.Lock()
	e.tracker = nil
	e.scratch = nil
	e.sessionID = ""
	e.running = false
	e.generation.Add(1)
	e.stateMu.Unlock()
}

func (e *Engine) resetCounters() {
	e.processed.Store(0)
	e.dropped.Store(0)
	e.absent.Store(0)
	e.malformed.Store(0)
}

// SetMode switches the gesture vocabulary. It is safe to call from any
// goroutine; the change applies from the next processed frame.
func (e *Engine) SetMode(m gesture.Mode) {
	if old := gesture.Mode(e.mode.Swap(int32(m))); old != m {
		e.logger.Info("mode changed", "from", old, "to", m)
	}
}

// Mode returns the requested mode.
func (e *Engine) Mode() gesture.Mode {
	return gesture.Mode(e.mode.Load())
}

// Running reports whether a session is active.
func (e *Engine) Running() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.running
}

// HandleFrame processes one frame. It returns false without queuing when
// the engine is stopped or another frame is still being processed,
// including while its event handlers run.
func (e *Engine) HandleFrame(f hand.Frame) bool {
	if !e.busy.CompareAndSwap(false, true) {
		e.dropped.Add(1)
		return false
	}
	defer e.busy.Store(false)

	e.stateMu.Lock()
	if e.tracker == nil {
		e.stateMu.Unlock()
		return false
	}
	gen := e.generation.Load()
	session := e.sessionID
	e.processed.Add(1)

	if !f.Present() {
		if f.Malformed() {
			e.malformed.Add(1)
		} else {
			e.absent.Add(1)
		}
		e.stateMu.Unlock()
		return true
	}

	e.tracker.SetMode(e.Mode())
	mode := e.tracker.Mode()
	outs := e.tracker.Process(f, e.scratch[:0])
	e.scratch = outs
	e.stateMu.Unlock()

	for _, o := range outs {
		if e.generation.Load() != gen {
			// Stopped while dispatching.
			break
		}
		e.dispatch(Event{
			Kind:      o.Kind,
			X:         o.Cursor.X,
			Y:         o.Cursor.Y,
			Mode:      mode,
			Session:   session,
			Timestamp: o.At,
		})
	}
	return true
}

func (e *Engine) dispatch(ev Event) {
	if ev.Kind != gesture.KindCursorMove {
		e.logger.Debug("gesture", "kind", ev.Kind, "mode", ev.Mode, "x", ev.X, "y", ev.Y)
	}
	for _, h := range e.subs.get(ev.Kind) {
		h(ev)
	}
}

// Stats returns a snapshot of the session counters.
func (e *Engine) Stats() Stats {
	e.stateMu.Lock()
	running, session := e.running, e.sessionID
	e.stateMu.Unlock()
	if !running {
		session = ""
	}

	return Stats{
		Running:   running,
		SessionID: session,
		Mode:      e.Mode(),
		Processed: e.processed.Load(),
		Dropped:   e.dropped.Load(),
		Absent:    e.absent.Load(),
		Malformed: e.malformed.Load(),
	}
}

// SessionID returns the ID of the running session, or "" when stopped.
func (e *Engine) SessionID() string {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if !e.running {
		return ""
	}
	return e.sessionID
}
