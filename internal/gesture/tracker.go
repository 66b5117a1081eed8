package gesture

import (
	"time"

	"github.com/ayusman/handshelf/internal/hand"
)

// Output is one result of processing a frame.
type Output struct {
	Kind   Kind
	Cursor CursorSample
	At     time.Time
}

// Tracker runs the cursor smoother and every detector for one tracking
// session and applies the mode vocabulary.
type Tracker struct {
	cfg      Config
	mode     Mode
	smoother *Smoother
	grab     *GrabDetector
	wave     *LinearDetector
	swipeUp  *LinearDetector
	lastSeen time.Time
}

// NewTracker creates a Tracker in cfg.DefaultMode.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:      cfg,
		mode:     cfg.DefaultMode,
		smoother: NewSmoother(cfg.Cursor),
		grab:     NewGrabDetector(cfg.Grab),
		wave:     NewWaveDetector(cfg.Wave),
		swipeUp:  NewSwipeUpDetector(cfg.SwipeUp),
	}
}

// Mode returns the active mode.
func (t *Tracker) Mode() Mode { return t.mode }

// SetMode switches the gesture vocabulary. When ResetOnModeChange is set
// the position histories, the grab hold counter and any pending release
// are dropped. Cooldowns always survive a switch.
func (t *Tracker) SetMode(m Mode) bool {
	if m == t.mode {
		return false
	}
	t.mode = m
	if t.cfg.ResetOnModeChange {
		t.wave.ClearHistory()
		t.swipeUp.ClearHistory()
		t.grab.AbandonHold()
		t.grab.ForgetRelease()
	}
	return true
}

// Process runs one frame and appends its outputs to out. Absent frames
// produce nothing and leave all state untouched.
func (t *Tracker) Process(f hand.Frame, out []Output) []Output {
	l, ok := f.Landmarks()
	if !ok {
		return out
	}
	at := f.Timestamp

	if t.cfg.HandLossReset > 0 && !t.lastSeen.IsZero() && at.Sub(t.lastSeen) > t.cfg.HandLossReset {
		t.handReturned()
	}
	t.lastSeen = at

	palm := l.Palm()
	cursor := t.smoother.Update(palm)
	out = append(out, Output{Kind: KindCursorMove, Cursor: cursor, At: at})

	if k := t.grab.Step(l, t.mode); k != KindNone {
		out = append(out, Output{Kind: k, Cursor: cursor, At: at})
	}

	s := Sample{X: palm.X, Y: palm.Y, At: at}
	if k := t.wave.Step(s, t.mode == ModeScan); k != KindNone {
		out = append(out, Output{Kind: k, Cursor: cursor, At: at})
	}
	if k := t.swipeUp.Step(s, t.mode == ModeBrowse); k != KindNone {
		out = append(out, Output{Kind: k, Cursor: cursor, At: at})
	}

	return out
}

// handReturned abandons anything in progress after a long tracking gap
// so the cursor does not jump and stale windows cannot fire.
func (t *Tracker) handReturned() {
	t.smoother.Reset()
	t.wave.ClearHistory()
	t.swipeUp.ClearHistory()
	t.grab.AbandonHold()
}

// Grab exposes the grab detector for inspection.
func (t *Tracker) Grab() *GrabDetector { return t.grab }

// Wave exposes the wave detector for inspection.
func (t *Tracker) Wave() *LinearDetector { return t.wave }

// SwipeUp exposes the swipe-up detector for inspection.
func (t *Tracker) SwipeUp() *LinearDetector { return t.swipeUp }

// Cursor returns the last smoothed cursor position.
func (t *Tracker) Cursor() (CursorSample, bool) { return t.smoother.Current() }
