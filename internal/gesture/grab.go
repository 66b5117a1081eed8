package gesture

import (
	"fmt"

	"github.com/ayusman/handshelf/internal/hand"
)

// GrabPhase is the phase of the grab state machine.
type GrabPhase int

const (
	// PhaseIdle waits for a matching pose.
	PhaseIdle GrabPhase = iota
	// PhaseHolding counts consecutive matching frames.
	PhaseHolding
	// PhaseCooldown suppresses detection after a grab.
	PhaseCooldown
)

// GrabState is Idle, Holding(n) or Cooldown(k).
type GrabState struct {
	Phase GrabPhase
	// Count is n for Holding and the remaining frames k for Cooldown.
	Count int
}

func (s GrabState) String() string {
	switch s.Phase {
	case PhaseHolding:
		return fmt.Sprintf("Holding(%d)", s.Count)
	case PhaseCooldown:
		return fmt.Sprintf("Cooldown(%d)", s.Count)
	default:
		return "Idle"
	}
}

var idle = GrabState{Phase: PhaseIdle}

// GrabDetector confirms fist grabs in browse mode and pinch grabs in scan
// mode, and reports the release edge after a fist grab.
type GrabDetector struct {
	cfg     GrabConfig
	state   GrabState
	wasFist bool
}

// NewGrabDetector creates an idle GrabDetector.
func NewGrabDetector(cfg GrabConfig) *GrabDetector {
	return &GrabDetector{cfg: cfg, state: idle}
}

// Step advances the machine by one present frame and returns KindGrab,
// KindOpenHand or KindNone.
func (d *GrabDetector) Step(l hand.Landmarks, mode Mode) Kind {
	if d.state.Phase == PhaseCooldown {
		d.state = d.tickCooldown()
		return KindNone
	}

	var matched bool
	if mode == ModeBrowse {
		matched = d.IsFist(l)
	} else {
		matched = d.IsPinch(l)
	}

	if !matched {
		d.state = idle
		if mode == ModeBrowse && d.wasFist {
			d.wasFist = false
			return KindOpenHand
		}
		return KindNone
	}

	held := 1
	if d.state.Phase == PhaseHolding {
		held = d.state.Count + 1
	}
	if held < d.cfg.HoldFrames {
		d.state = GrabState{Phase: PhaseHolding, Count: held}
		return KindNone
	}

	d.state = idle
	if d.cfg.CooldownFrames > 0 {
		d.state = GrabState{Phase: PhaseCooldown, Count: d.cfg.CooldownFrames}
	}
	if mode == ModeBrowse {
		d.wasFist = true
	}
	return KindGrab
}

func (d *GrabDetector) tickCooldown() GrabState {
	remaining := d.state.Count - 1
	if remaining <= 0 {
		return idle
	}
	return GrabState{Phase: PhaseCooldown, Count: remaining}
}

// IsFist applies the closed-fist test: enough fingertips within T of the
// palm, the thumb within ThumbFactor*T, and the mean fingertip distance
// below MeanFactor*T.
func (d *GrabDetector) IsFist(l hand.Landmarks) bool {
	palm := l[hand.PalmCenter]
	closedAt := d.cfg.FistThreshold

	closed := 0
	var total float64
	for _, tip := range hand.FingerTips {
		dist := hand.Distance(palm, l[tip], d.cfg.UseDepth)
		total += dist
		if dist < closedAt {
			closed++
		}
	}
	if closed < d.cfg.MinFingersClosed {
		return false
	}

	thumb := hand.Distance(palm, l[hand.ThumbTip], d.cfg.UseDepth)
	if thumb >= closedAt*d.cfg.ThumbFactor {
		return false
	}

	mean := total / float64(len(hand.FingerTips))
	return mean < closedAt*d.cfg.MeanFactor
}

// IsPinch reports whether the thumb tip touches the index fingertip.
func (d *GrabDetector) IsPinch(l hand.Landmarks) bool {
	return hand.Distance(l[hand.ThumbTip], l[hand.IndexTip], d.cfg.UseDepth) < d.cfg.PinchThreshold
}

// State returns the current machine state.
func (d *GrabDetector) State() GrabState { return d.state }

// WasFist reports whether a fist grab is waiting for its release edge.
func (d *GrabDetector) WasFist() bool { return d.wasFist }

// AbandonHold drops a partially held pose. A running cooldown is kept.
func (d *GrabDetector) AbandonHold() {
	if d.state.Phase == PhaseHolding {
		d.state = idle
	}
}

// ForgetRelease clears a pending release edge.
func (d *GrabDetector) ForgetRelease() { d.wasFist = false }

// Reset returns the detector to Idle with no pending release.
func (d *GrabDetector) Reset() {
	d.state = idle
	d.wasFist = false
}
