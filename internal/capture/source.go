package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/handshelf/internal/detector"
	"github.com/ayusman/handshelf/internal/hand"
)

// ErrAlreadyStarted is returned by Start on a running source.
var ErrAlreadyStarted = errors.New("landmark source already started")

// LandmarkSource pumps camera frames through the motion gate and the pose
// estimator and delivers one hand.Frame per detection. It runs a single
// goroutine, so frames are never queued: while detection runs the camera
// keeps only its latest frame.
type LandmarkSource struct {
	camera   Camera
	detector detector.Detector
	motion   *MotionGate
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLandmarkSource wires a camera and a detector into a frame source.
// A nil logger uses slog.Default().
func NewLandmarkSource(cam Camera, det detector.Detector, cfg Config, logger *slog.Logger) *LandmarkSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &LandmarkSource{
		camera:   cam,
		detector: det,
		motion:   NewMotionGate(cfg.MotionThreshold),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start opens the camera and begins delivering frames until Stop or until
// ctx is cancelled.
func (s *LandmarkSource) Start(ctx context.Context, deliver func(hand.Frame) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	// The pose estimator comes up first so a missing backend fails the
	// start instead of every frame.
	if st, ok := s.detector.(detector.Starter); ok {
		if err := st.Start(); err != nil {
			return fmt.Errorf("start detector: %w", err)
		}
	}
	if err := s.camera.Open(); err != nil {
		s.detector.Close()
		return fmt.Errorf("open camera: %w", err)
	}
	s.camera.SetFPS(s.fps(!s.cfg.MotionGate))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		s.run(ctx, deliver)
	}()

	s.logger.Info("capture started",
		"device", s.cfg.Device,
		"motion_gate", s.cfg.MotionGate,
		"fps", s.camera.FPS(),
	)
	return nil
}

// Stop ends the pump and releases the camera and the pose estimator. It
// waits for the pump goroutine, so it must not be called from deliver.
func (s *LandmarkSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
	s.motion.Reset()

	var errs []error
	if err := s.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := s.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	s.logger.Info("capture stopped")
	return errors.Join(errs...)
}

// Running reports whether the pump goroutine is active.
func (s *LandmarkSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *LandmarkSource) fps(active bool) int {
	if active {
		return s.cfg.ActiveFPS
	}
	return s.cfg.IdleFPS
}

func (s *LandmarkSource) interval(active bool) time.Duration {
	return time.Second / time.Duration(s.fps(active))
}

// run is the pump loop. With the motion gate on it starts idle, switches
// to the active rate on motion and falls back after IdleAfter without any.
func (s *LandmarkSource) run(ctx context.Context, deliver func(hand.Frame) bool) {
	active := !s.cfg.MotionGate
	lastMotion := s.now()

	ticker := time.NewTicker(s.interval(active))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := s.camera.ReadFrame()
		if err != nil {
			s.logger.Warn("read frame failed", "error", err)
			continue
		}
		at := s.now()

		if s.cfg.MotionGate {
			moved, percent := s.motion.Moved(frame)
			switch {
			case moved:
				lastMotion = at
				if !active {
					active = true
					s.switchRate(ticker, active)
					s.logger.Debug("motion detected, active capture", "changed_pct", percent)
				}
			case active && at.Sub(lastMotion) > s.cfg.IdleAfter:
				active = false
				s.switchRate(ticker, active)
				s.logger.Debug("no motion, idle capture")
			}
		}

		if !active {
			frame.Close()
			continue
		}

		hands, err := s.detector.Detect(frame)
		frame.Close()
		if err != nil {
			s.logger.Warn("hand detection failed", "error", err)
			continue
		}

		if !deliver(hand.FromDetections(hands, at)) {
			s.logger.Debug("frame dropped")
		}
	}
}

func (s *LandmarkSource) switchRate(ticker *time.Ticker, active bool) {
	s.camera.SetFPS(s.fps(active))
	ticker.Reset(s.interval(active))
}
