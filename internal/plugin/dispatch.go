package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
)

// ErrInvalidBinding is returned by NewDispatcher for a binding that cannot
// run.
var ErrInvalidBinding = errors.New("invalid action binding")

// queueSize is how many matched gestures may wait for a plugin.
const queueSize = 16

// Config configures action plugins.
type Config struct {
	// Dir holds one subdirectory per plugin.
	Dir string `yaml:"dir"`

	// Timeout bounds one plugin run.
	Timeout time.Duration `yaml:"timeout"`

	// Bindings map gestures to plugin actions.
	Bindings []Binding `yaml:"bindings"`
}

// DefaultConfig returns a Config with no bindings.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
	}
}

// Binding runs Plugin's Action when Gesture fires, optionally only in
// Mode.
type Binding struct {
	Gesture gesture.Kind   `yaml:"gesture"`
	Mode    *gesture.Mode  `yaml:"mode,omitempty"`
	Plugin  string         `yaml:"plugin"`
	Action  string         `yaml:"action"`
	Params  map[string]any `yaml:"params,omitempty"`
}

// Matches reports whether ev triggers b.
func (b Binding) Matches(ev engine.Event) bool {
	if ev.Kind != b.Gesture {
		return false
	}
	return b.Mode == nil || *b.Mode == ev.Mode
}

type job struct {
	plugin  *Plugin
	request *Request
}

type boundAction struct {
	binding Binding
	plugin  *Plugin
	params  json.RawMessage
}

// Dispatcher runs bound plugin actions for engine events on its own
// goroutine, one at a time.
type Dispatcher struct {
	executor *Executor
	actions  []boundAction
	logger   *slog.Logger

	queue     chan job
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher resolves every binding against the discovered plugins
// and starts the worker. A binding naming an unknown plugin or action, or
// the cursor, is rejected.
func NewDispatcher(m *Manager, e *Executor, bindings []Binding, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	actions := make([]boundAction, 0, len(bindings))
	for i, b := range bindings {
		if b.Gesture == gesture.KindNone || b.Gesture == gesture.KindCursorMove {
			return nil, fmt.Errorf("%w %d: gesture %s cannot trigger actions", ErrInvalidBinding, i, b.Gesture)
		}
		p, err := m.Get(b.Plugin)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrInvalidBinding, i, err)
		}
		if !p.Supports(b.Action) {
			return nil, fmt.Errorf("%w %d: plugin %q has no action %q", ErrInvalidBinding, i, b.Plugin, b.Action)
		}
		var params json.RawMessage
		if len(b.Params) > 0 {
			if params, err = json.Marshal(b.Params); err != nil {
				return nil, fmt.Errorf("%w %d: params: %v", ErrInvalidBinding, i, err)
			}
		}
		actions = append(actions, boundAction{binding: b, plugin: p, params: params})
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		executor: e,
		actions:  actions,
		logger:   logger,
		queue:    make(chan job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d, nil
}

// Handle queues the actions bound to ev. It never blocks; when the queue
// is full the action is skipped. It is an engine.Handler.
func (d *Dispatcher) Handle(ev engine.Event) {
	for _, a := range d.actions {
		if !a.binding.Matches(ev) {
			continue
		}
		req := &Request{
			Action:  a.binding.Action,
			Gesture: ev.Kind.String(),
			Mode:    ev.Mode.String(),
			X:       ev.X,
			Y:       ev.Y,
			Params:  a.params,
		}
		select {
		case d.queue <- job{plugin: a.plugin, request: req}:
		case <-d.ctx.Done():
			return
		default:
			d.logger.Warn("action queue full, skipping", "plugin", a.plugin.Manifest.Name, "action", req.Action)
		}
	}
}

// Kinds returns the gestures that have at least one binding.
func (d *Dispatcher) Kinds() []gesture.Kind {
	seen := make(map[gesture.Kind]bool)
	var kinds []gesture.Kind
	for _, a := range d.actions {
		if !seen[a.binding.Gesture] {
			seen[a.binding.Gesture] = true
			kinds = append(kinds, a.binding.Gesture)
		}
	}
	return kinds
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-d.queue:
			d.execute(j)
		}
	}
}

func (d *Dispatcher) execute(j job) {
	name := j.plugin.Manifest.Name
	resp, err := d.executor.Execute(d.ctx, j.plugin, j.request)
	switch {
	case err != nil:
		d.logger.Error("plugin action failed", "plugin", name, "action", j.request.Action, "error", err)
	case !resp.Success:
		d.logger.Warn("plugin reported failure", "plugin", name, "action", j.request.Action, "error", resp.Error)
	default:
		d.logger.Debug("plugin action ran", "plugin", name, "action", j.request.Action, "gesture", j.request.Gesture)
	}
}

// Close stops the worker, cancelling a running plugin. Queued actions
// are dropped.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.cancel()
	})
	d.wg.Wait()
}
