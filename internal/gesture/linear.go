package gesture

import "math"

// Direction is the displacement a LinearDetector looks for.
type Direction int

const (
	// Horizontal matches movement left or right.
	Horizontal Direction = iota
	// Up matches movement toward the top of the image (decreasing y).
	Up
)

// LinearDetector classifies the displacement between the oldest and
// newest sample of a sliding window. It has its own cooldown,
// independent of every other detector.
type LinearDetector struct {
	kind      Kind
	direction Direction
	cfg       LinearConfig
	history   *History
	cooldown  int
}

// NewLinearDetector creates a detector that reports kind when a window
// moves far enough in direction.
func NewLinearDetector(kind Kind, direction Direction, cfg LinearConfig) *LinearDetector {
	return &LinearDetector{
		kind:      kind,
		direction: direction,
		cfg:       cfg,
		history:   NewHistory(cfg.Window),
	}
}

// NewWaveDetector creates the horizontal wave detector.
func NewWaveDetector(cfg LinearConfig) *LinearDetector {
	return NewLinearDetector(KindWave, Horizontal, cfg)
}

// NewSwipeUpDetector creates the upward swipe detector.
func NewSwipeUpDetector(cfg LinearConfig) *LinearDetector {
	return NewLinearDetector(KindSwipeUp, Up, cfg)
}

// Step advances the detector by one present frame. The cooldown always
// ticks; the sample is only recorded and evaluated while active. On a
// match the history is cleared, forcing a fresh window before the next
// detection.
func (d *LinearDetector) Step(s Sample, active bool) Kind {
	cooling := d.cooldown > 0
	if cooling {
		d.cooldown--
	}
	if !active {
		return KindNone
	}

	d.history.Push(s)
	if cooling || !d.history.Full() || !d.matches() {
		return KindNone
	}

	d.history.Clear()
	d.cooldown = d.cfg.CooldownFrames
	return d.kind
}

func (d *LinearDetector) matches() bool {
	oldest, newest := d.history.Oldest(), d.history.Newest()
	if newest.At.Sub(oldest.At) > d.cfg.MaxDuration {
		return false
	}

	dx := newest.X - oldest.X
	dy := newest.Y - oldest.Y

	switch d.direction {
	case Horizontal:
		return math.Abs(dx) >= d.cfg.Distance && math.Abs(dy) < d.cfg.MaxOffAxis
	case Up:
		return -dy >= d.cfg.Distance && math.Abs(dx) < d.cfg.MaxOffAxis
	}
	return false
}

// Kind returns the gesture this detector reports.
func (d *LinearDetector) Kind() Kind { return d.kind }

// Cooldown returns the remaining cooldown frames.
func (d *LinearDetector) Cooldown() int { return d.cooldown }

// History exposes the sliding window.
func (d *LinearDetector) History() *History { return d.history }

// ClearHistory empties the window but keeps the cooldown.
func (d *LinearDetector) ClearHistory() { d.history.Clear() }

// Reset clears the window and the cooldown.
func (d *LinearDetector) Reset() {
	d.history.Clear()
	d.cooldown = 0
}
