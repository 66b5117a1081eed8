// Package app wires the handshelf components together: the gesture
// engine, the camera landmark source, the store, the HTTP server and the
// tray menu, and the action plugins bound to gestures.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handshelf/internal/capture"
	"github.com/ayusman/handshelf/internal/config"
	"github.com/ayusman/handshelf/internal/detector"
	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/plugin"
	"github.com/ayusman/handshelf/internal/server"
	"github.com/ayusman/handshelf/internal/store"
)

// journalBuffer is how many discrete gestures may wait for the database.
const journalBuffer = 64

// Options holds the collaborators New does not build from the config.
type Options struct {
	// Store persists the mode and the gesture journal. Nil disables both.
	Store *store.Store

	// Source replaces the camera pipeline, mainly for tests.
	Source engine.Source

	Logger *slog.Logger
}

// App is the running handshelf application. It implements the control
// surface used by the HTTP API and the tray.
type App struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	hub    *server.EventHub
	logger *slog.Logger

	// actions is nil when no gesture is bound to a plugin.
	actions *plugin.Dispatcher

	// source is fixed by Options or built per session by newSource.
	source engine.Source

	// mu serializes StartTracking and StopTracking so the journal session
	// always matches the engine session.
	mu      sync.Mutex
	session string

	// journaled is the session whose gestures go to the journal, read on
	// the frame goroutine.
	journaled atomic.Value

	hooksMu       sync.RWMutex
	onLastGesture func(name string)
	onStatus      func(engine.Stats)

	journal   chan store.Entry
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds an App from cfg. The persisted mode, if any, replaces the
// configured default.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:    cfg,
		store:  opts.Store,
		source: opts.Source,
		hub:    server.NewEventHub(logger.With("component", "events")),
		logger: logger,
	}
	a.journaled.Store("")

	engineCfg := cfg.Engine
	if a.store != nil {
		engineCfg.DefaultMode = a.restoreMode(engineCfg.DefaultMode)
		a.pruneJournal()
	}

	eng, err := engine.New(engineCfg, logger.With("component", "engine"))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	a.engine = eng

	eng.OnAll(a.hub.Publish)
	for _, kind := range gesture.Kinds {
		if kind == gesture.KindCursorMove {
			continue
		}
		eng.On(kind, a.recordGesture)
	}

	if len(cfg.Actions.Bindings) > 0 {
		d, err := newDispatcher(cfg.Actions, logger.With("component", "actions"))
		if err != nil {
			return nil, err
		}
		a.actions = d
		for _, kind := range d.Kinds() {
			eng.On(kind, d.Handle)
		}
	}

	if a.store != nil {
		a.journal = make(chan store.Entry, journalBuffer)
		a.wg.Add(1)
		go a.writeJournal()
	}

	return a, nil
}

// newDispatcher discovers the plugins in cfg.Dir and binds them.
func newDispatcher(cfg plugin.Config, logger *slog.Logger) (*plugin.Dispatcher, error) {
	m := plugin.NewManager(cfg.Dir, logger)
	if err := m.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	d, err := plugin.NewDispatcher(m, plugin.NewExecutor(cfg.Timeout), cfg.Bindings, logger)
	if err != nil {
		return nil, fmt.Errorf("bind actions: %w", err)
	}
	return d, nil
}

// restoreMode returns the persisted mode, or def when none is stored.
func (a *App) restoreMode(def gesture.Mode) gesture.Mode {
	value, err := a.store.Settings().GetOr(store.SettingMode, def.String())
	if err != nil {
		a.logger.Warn("failed to read persisted mode", "error", err)
		return def
	}
	m, err := gesture.ParseMode(value)
	if err != nil {
		a.logger.Warn("ignoring persisted mode", "value", value, "error", err)
		return def
	}
	return m
}

func (a *App) pruneJournal() {
	if a.cfg.JournalRetention <= 0 {
		return
	}
	n, err := a.store.Journal().Prune(time.Now().Add(-a.cfg.JournalRetention))
	if err != nil {
		a.logger.Warn("failed to prune journal", "error", err)
		return
	}
	if n > 0 {
		a.logger.Info("pruned journal", "sessions", n)
	}
}

// Engine returns the gesture engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Hub returns the event stream hub.
func (a *App) Hub() *server.EventHub {
	return a.hub
}

// OnLastGesture sets the callback run with the name of every discrete
// gesture. It runs on the frame goroutine.
func (a *App) OnLastGesture(fn func(name string)) {
	a.hooksMu.Lock()
	defer a.hooksMu.Unlock()
	a.onLastGesture = fn
}

// OnStatus sets the callback run after tracking starts or stops and after
// the mode changes.
func (a *App) OnStatus(fn func(engine.Stats)) {
	a.hooksMu.Lock()
	defer a.hooksMu.Unlock()
	a.onStatus = fn
}

func (a *App) notifyStatus() {
	a.hooksMu.RLock()
	fn := a.onStatus
	a.hooksMu.RUnlock()
	if fn != nil {
		fn(a.engine.Stats())
	}
}

// StartTracking starts a tracking session. Starting while running is a
// no-op.
func (a *App) StartTracking(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine.Running() {
		return nil
	}

	src, err := a.newSource()
	if err != nil {
		return err
	}

	// The session row exists before the first gesture can be journaled.
	session := uuid.NewString()
	journaled := false
	if a.store != nil {
		if err := a.store.Journal().OpenSession(session, a.engine.Mode().String(), time.Now()); err != nil {
			a.logger.Warn("failed to open journal session", "session", session, "error", err)
		} else {
			journaled = true
			a.journaled.Store(session)
		}
	}

	if err := a.engine.StartSession(ctx, src, session); err != nil {
		a.journaled.Store("")
		if journaled {
			if derr := a.store.Journal().DeleteSession(session); derr != nil {
				a.logger.Warn("failed to discard journal session", "session", session, "error", derr)
			}
		}
		return err
	}

	a.session = session
	a.notifyStatus()
	return nil
}

// StopTracking stops the running session. Stopping while stopped is a
// no-op.
func (a *App) StopTracking() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	session := a.session
	a.session = ""
	err := a.engine.Stop()
	a.journaled.Store("")

	if session == "" {
		return err
	}
	if a.store != nil {
		if cerr := a.store.Journal().CloseSession(session, time.Now()); cerr != nil && !errors.Is(cerr, store.ErrNotFound) {
			a.logger.Warn("failed to close journal session", "session", session, "error", cerr)
		}
	}
	a.notifyStatus()
	return err
}

// SetMode switches the gesture vocabulary and persists the choice.
func (a *App) SetMode(m gesture.Mode) error {
	if _, err := m.MarshalText(); err != nil {
		return err
	}
	a.engine.SetMode(m)
	a.notifyStatus()

	if a.store != nil {
		if err := a.store.Settings().Set(store.SettingMode, m.String()); err != nil {
			return fmt.Errorf("persist mode: %w", err)
		}
	}
	return nil
}

// Status returns the engine statistics.
func (a *App) Status() engine.Stats {
	return a.engine.Stats()
}

// newSource returns the landmark source for a new session. The camera
// pipeline uses MediaPipe when its helper is installed and otherwise a
// detector that never sees a hand.
func (a *App) newSource() (engine.Source, error) {
	if a.source != nil {
		return a.source, nil
	}

	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(a.cfg.Detector, a.logger.With("component", "detector"))
	switch {
	case err == nil:
		det = mp
	case a.cfg.Detector.MockFallback:
		a.logger.Warn("mediapipe not available, tracking with a detector that sees no hands", "error", err)
		det = detector.NewMockDetector()
	default:
		return nil, fmt.Errorf("pose detector: %w", err)
	}

	cam := capture.NewCamera(a.cfg.Camera)
	return capture.NewLandmarkSource(cam, det, a.cfg.Camera, a.logger.With("component", "capture")), nil
}

// recordGesture runs on the frame goroutine and must not block.
func (a *App) recordGesture(ev engine.Event) {
	a.hooksMu.RLock()
	last := a.onLastGesture
	a.hooksMu.RUnlock()
	if last != nil {
		last(ev.Kind.String())
	}

	if a.journal == nil || ev.Session == "" || ev.Session != a.journaled.Load().(string) {
		return
	}
	entry := store.Entry{
		SessionID:  ev.Session,
		Kind:       ev.Kind.String(),
		Mode:       ev.Mode.String(),
		X:          ev.X,
		Y:          ev.Y,
		OccurredAt: ev.Timestamp,
	}
	select {
	case a.journal <- entry:
	default:
		a.logger.Warn("journal backlog full, dropping gesture", "kind", ev.Kind)
	}
}

func (a *App) writeJournal() {
	defer a.wg.Done()
	for entry := range a.journal {
		if err := a.store.Journal().Record(&entry); err != nil {
			a.logger.Warn("failed to record gesture", "kind", entry.Kind, "error", err)
		}
	}
}

// Server returns the HTTP server for the API, the event stream and the UI
// in staticDir.
func (a *App) Server(staticDir string) *server.Server {
	cfg := server.Config{
		StaticDir:  staticDir,
		Controller: a,
		Hub:        a.hub,
		Logger:     a.logger.With("component", "server"),
	}
	if a.store != nil {
		cfg.Journal = a.store.Journal()
	}
	return server.New(cfg)
}

// Close stops tracking, cancels plugin actions, disconnects event clients
// and flushes the journal. The store is left open.
func (a *App) Close() error {
	err := a.StopTracking()
	a.closeOnce.Do(func() {
		if a.actions != nil {
			a.actions.Close()
		}
		a.hub.Close()
		if a.journal != nil {
			close(a.journal)
		}
	})
	a.wg.Wait()
	return err
}
