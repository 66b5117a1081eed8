// Package detector turns camera frames into hand landmarks.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handshelf/internal/hand"
)

// Detector defines the interface for hand pose estimators.
type Detector interface {
	// Detect analyzes a video frame and returns detected hands.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]hand.Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Starter is implemented by detectors that can bring their backend up
// ahead of the first frame. A Start error means the backend is unusable.
type Starter interface {
	Start() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report (default: 1).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// Script is the path to the MediaPipe helper. Empty searches the
	// usual install locations.
	Script string `yaml:"script"`

	// Python is the interpreter used to run Script. Empty prefers a
	// project virtualenv, then python3.
	Python string `yaml:"python"`

	// IdleTimeout shuts the helper down after this long without a frame.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// StartTimeout bounds the wait for the helper's ready line. Loading
	// the MediaPipe model takes several seconds on a cold start.
	StartTimeout time.Duration `yaml:"start_timeout"`

	// MockFallback replaces a missing helper with a detector that never
	// sees a hand instead of failing tracking start. Meant for demos and
	// UI work without a camera model.
	MockFallback bool `yaml:"mock_fallback"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
		StartTimeout:  30 * time.Second,
	}
}

// filter drops low-confidence hands and caps the result at MaxHands.
func (c Config) filter(hands []hand.Detection) []hand.Detection {
	out := hands[:0]
	for _, h := range hands {
		if h.Score < c.MinConfidence {
			continue
		}
		out = append(out, h)
		if c.MaxHands > 0 && len(out) == c.MaxHands {
			break
		}
	}
	return out
}
