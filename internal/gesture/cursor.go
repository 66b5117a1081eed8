package gesture

import "github.com/ayusman/handshelf/internal/hand"

// CursorSample is a smoothed cursor position in screen pixels.
type CursorSample struct {
	X float64
	Y float64
}

// Smoother maps the palm center to screen space and applies exponential
// smoothing.
type Smoother struct {
	cfg     CursorConfig
	current CursorSample
	seeded  bool
}

// NewSmoother creates an unseeded Smoother.
func NewSmoother(cfg CursorConfig) *Smoother {
	return &Smoother{cfg: cfg}
}

// Update feeds one palm position and returns the new smoothed sample.
// The first update after construction or Reset jumps straight to the
// target.
func (s *Smoother) Update(palm hand.Point3D) CursorSample {
	target := s.Target(palm)

	if !s.seeded {
		s.current = target
		s.seeded = true
		return s.current
	}

	s.current.X += (target.X - s.current.X) * s.cfg.Alpha
	s.current.Y += (target.Y - s.current.Y) * s.cfg.Alpha
	return s.current
}

// Target remaps a normalized palm position onto the screen without
// smoothing. The central [margin, 1-margin] range covers the full
// screen; anything outside is clamped to the edge.
func (s *Smoother) Target(palm hand.Point3D) CursorSample {
	x := remap(palm.X, s.cfg.Margin)
	if s.cfg.MirrorX {
		x = 1 - x
	}
	y := remap(palm.Y, s.cfg.Margin)
	return CursorSample{X: x * s.cfg.Width, Y: y * s.cfg.Height}
}

// Current returns the last smoothed sample and whether the smoother has
// been seeded.
func (s *Smoother) Current() (CursorSample, bool) {
	return s.current, s.seeded
}

// Reset drops the smoothing state; the next update re-seeds.
func (s *Smoother) Reset() {
	s.current = CursorSample{}
	s.seeded = false
}

func remap(v, margin float64) float64 {
	span := 1 - 2*margin
	t := (v - margin) / span
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
