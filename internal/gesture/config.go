// Package gesture turns hand landmarks into a smoothed cursor position
// and debounced discrete gestures.
//
// Every detector is a small explicit state machine stepped once per
// present frame. None of them are safe for concurrent use; the engine
// owns them and serializes access.
package gesture

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid gesture config")

// CursorConfig controls the Cursor Smoother.
type CursorConfig struct {
	// Width and Height are the screen extent in pixels.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// Margin is the border of the camera image that is ignored; the range
	// [Margin, 1-Margin] covers the whole screen.
	Margin float64 `yaml:"margin"`

	// Alpha is the exponential smoothing factor in (0, 1]. Higher is more
	// responsive, lower is smoother.
	Alpha float64 `yaml:"alpha"`

	// MirrorX flips the horizontal axis for front-facing cameras.
	MirrorX bool `yaml:"mirror_x"`
}

// GrabConfig controls the fist and pinch grab detector.
type GrabConfig struct {
	// FistThreshold is the closed distance T between the palm center and
	// a fingertip.
	FistThreshold float64 `yaml:"fist_threshold"`
	// ThumbFactor scales T for the thumb tip.
	ThumbFactor float64 `yaml:"thumb_factor"`
	// MeanFactor scales T for the mean fingertip distance bound.
	MeanFactor float64 `yaml:"mean_factor"`
	// MinFingersClosed is how many of the four fingertips must be closed.
	MinFingersClosed int `yaml:"min_fingers_closed"`

	// PinchThreshold is the thumb-to-index distance below which scan mode
	// reports a pinch.
	PinchThreshold float64 `yaml:"pinch_threshold"`

	// UseDepth includes z in distance computations.
	UseDepth bool `yaml:"use_depth"`

	HoldFrames     int `yaml:"hold_frames"`
	CooldownFrames int `yaml:"cooldown_frames"`
}

// LinearConfig parameterizes a sliding-window displacement detector.
type LinearConfig struct {
	Window         int           `yaml:"window"`
	Distance       float64       `yaml:"distance"`
	MaxOffAxis     float64       `yaml:"max_off_axis"`
	MaxDuration    time.Duration `yaml:"max_duration"`
	CooldownFrames int           `yaml:"cooldown_frames"`
}

// Config holds every tunable of the gesture engine.
type Config struct {
	Cursor  CursorConfig `yaml:"cursor"`
	Grab    GrabConfig   `yaml:"grab"`
	Wave    LinearConfig `yaml:"wave"`
	SwipeUp LinearConfig `yaml:"swipe_up"`

	// DefaultMode is the mode a new engine starts in.
	DefaultMode Mode `yaml:"default_mode"`

	// ResetOnModeChange clears position histories and the grab hold
	// counter whenever the mode changes. Cooldowns are kept.
	ResetOnModeChange bool `yaml:"reset_on_mode_change"`

	// HandLossReset is the gap between present frames after which the
	// cursor is re-seeded and in-progress gestures are abandoned. Zero
	// disables the reset.
	HandLossReset time.Duration `yaml:"hand_loss_reset"`
}

// DefaultConfig returns a Config with the reference tuning.
func DefaultConfig() Config {
	return Config{
		Cursor: CursorConfig{
			Width:  1920,
			Height: 1080,
			Margin: 0.1,
			Alpha:  0.65,
		},
		Grab: GrabConfig{
			FistThreshold:    0.15,
			ThumbFactor:      1.2,
			MeanFactor:       1.1,
			MinFingersClosed: 3,
			PinchThreshold:   0.05,
			HoldFrames:       3,
			CooldownFrames:   15,
		},
		Wave: LinearConfig{
			Window:         10,
			Distance:       0.35,
			MaxOffAxis:     0.12,
			MaxDuration:    600 * time.Millisecond,
			CooldownFrames: 20,
		},
		SwipeUp: LinearConfig{
			Window:         8,
			Distance:       0.25,
			MaxOffAxis:     0.15,
			MaxDuration:    400 * time.Millisecond,
			CooldownFrames: 20,
		},
		DefaultMode:       ModeScan,
		ResetOnModeChange: true,
		HandLossReset:     500 * time.Millisecond,
	}
}

// Validate checks that every tunable is in range.
func (c Config) Validate() error {
	switch {
	case c.Cursor.Width <= 0 || c.Cursor.Height <= 0:
		return fmt.Errorf("%w: screen size %gx%g", ErrInvalidConfig, c.Cursor.Width, c.Cursor.Height)
	case c.Cursor.Margin < 0 || c.Cursor.Margin >= 0.5:
		return fmt.Errorf("%w: cursor margin %g not in [0, 0.5)", ErrInvalidConfig, c.Cursor.Margin)
	case c.Cursor.Alpha <= 0 || c.Cursor.Alpha > 1:
		return fmt.Errorf("%w: cursor alpha %g not in (0, 1]", ErrInvalidConfig, c.Cursor.Alpha)
	case c.Grab.FistThreshold <= 0 || c.Grab.ThumbFactor <= 0 || c.Grab.MeanFactor <= 0:
		return fmt.Errorf("%w: fist thresholds must be positive", ErrInvalidConfig)
	case c.Grab.MinFingersClosed < 1 || c.Grab.MinFingersClosed > 4:
		return fmt.Errorf("%w: min fingers closed %d not in [1, 4]", ErrInvalidConfig, c.Grab.MinFingersClosed)
	case c.Grab.PinchThreshold <= 0:
		return fmt.Errorf("%w: pinch threshold must be positive", ErrInvalidConfig)
	case c.Grab.HoldFrames < 1:
		return fmt.Errorf("%w: hold frames must be at least 1", ErrInvalidConfig)
	case c.Grab.CooldownFrames < 0:
		return fmt.Errorf("%w: grab cooldown must not be negative", ErrInvalidConfig)
	case c.HandLossReset < 0:
		return fmt.Errorf("%w: hand loss reset must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseMode(c.DefaultMode.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Wave.validate("wave"); err != nil {
		return err
	}
	return c.SwipeUp.validate("swipe_up")
}

func (c LinearConfig) validate(name string) error {
	switch {
	case c.Window < MinWindow || c.Window > MaxWindow:
		return fmt.Errorf("%w: %s window %d not in [%d, %d]", ErrInvalidConfig, name, c.Window, MinWindow, MaxWindow)
	case c.Distance <= 0 || c.MaxOffAxis <= 0:
		return fmt.Errorf("%w: %s distances must be positive", ErrInvalidConfig, name)
	case c.MaxDuration <= 0:
		return fmt.Errorf("%w: %s max duration must be positive", ErrInvalidConfig, name)
	case c.CooldownFrames < 0:
		return fmt.Errorf("%w: %s cooldown must not be negative", ErrInvalidConfig, name)
	}
	return nil
}
