package engine

import (
	"sync"
	"time"

	"github.com/ayusman/handshelf/internal/gesture"
)

// Event is delivered to subscribers. X and Y are the smoothed cursor
// position in screen pixels at the time of the event. Session is the ID
// of the tracking session that produced it.
type Event struct {
	Kind      gesture.Kind
	X         float64
	Y         float64
	Mode      gesture.Mode
	Session   string
	Timestamp time.Time
}

// Handler receives engine events. Handlers run synchronously on the
// frame-processing goroutine and must return quickly; while a handler
// runs, newly delivered frames are dropped. A handler must not call
// Engine.Stop.
type Handler func(Event)

type subscribers struct {
	mu       sync.RWMutex
	handlers map[gesture.Kind][]Handler
}

func (s *subscribers) add(kind gesture.Kind, h Handler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[gesture.Kind][]Handler)
	}
	s.handlers[kind] = append(s.handlers[kind], h)
}

func (s *subscribers) get(kind gesture.Kind) []Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[kind]
}

// On registers h for one event kind.
func (e *Engine) On(kind gesture.Kind, h Handler) {
	e.subs.add(kind, h)
}

// OnAll registers h for every event kind, cursor moves included.
func (e *Engine) OnAll(h Handler) {
	for _, k := range gesture.Kinds {
		e.subs.add(k, h)
	}
}

// OnCursorMove registers fn for every smoothed cursor position. A nil fn
// is ignored, as with the other On helpers.
func (e *Engine) OnCursorMove(fn func(x, y float64)) {
	if fn == nil {
		return
	}
	e.On(gesture.KindCursorMove, func(ev Event) { fn(ev.X, ev.Y) })
}

// OnGrab registers fn for confirmed grabs.
func (e *Engine) OnGrab(fn func()) {
	if fn == nil {
		return
	}
	e.On(gesture.KindGrab, func(Event) { fn() })
}

// OnOpenHand registers fn for confirmed releases.
func (e *Engine) OnOpenHand(fn func()) {
	if fn == nil {
		return
	}
	e.On(gesture.KindOpenHand, func(Event) { fn() })
}

// OnWave registers fn for confirmed waves.
func (e *Engine) OnWave(fn func()) {
	if fn == nil {
		return
	}
	e.On(gesture.KindWave, func(Event) { fn() })
}

// OnSwipeUp registers fn for confirmed upward swipes.
func (e *Engine) OnSwipeUp(fn func()) {
	if fn == nil {
		return
	}
	e.On(gesture.KindSwipeUp, func(Event) { fn() })
}
