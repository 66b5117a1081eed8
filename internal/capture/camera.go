// Package capture reads webcam frames with GoCV (OpenCV), gates them on
// motion and pumps detected hand landmarks into the gesture engine.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device hands back no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Config describes the camera and the capture pump.
type Config struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// IdleFPS is the polling rate while nothing moves in front of the
	// camera; ActiveFPS is used while motion was seen recently.
	IdleFPS   int `yaml:"idle_fps"`
	ActiveFPS int `yaml:"active_fps"`

	// MotionGate enables idle/active switching. When false the pump runs
	// at ActiveFPS and sends every frame to the detector.
	MotionGate bool `yaml:"motion_gate"`

	// MotionThreshold is the percentage of changed pixels that counts as
	// motion.
	MotionThreshold float64 `yaml:"motion_threshold"`

	// IdleAfter is how long without motion before dropping to IdleFPS.
	IdleAfter time.Duration `yaml:"idle_after"`
}

// DefaultConfig returns the capture defaults: 640x480, 5 fps idle,
// 15 fps active, 1% motion threshold and a 2s idle timeout.
func DefaultConfig() Config {
	return Config{
		Device:          0,
		Width:           640,
		Height:          480,
		IdleFPS:         5,
		ActiveFPS:       15,
		MotionGate:      true,
		MotionThreshold: 1.0,
		IdleAfter:       2 * time.Second,
	}
}

// Validate checks the capture settings.
func (c Config) Validate() error {
	switch {
	case c.Device < 0:
		return fmt.Errorf("camera device must be >= 0, got %d", c.Device)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("camera resolution must be positive, got %dx%d", c.Width, c.Height)
	case c.IdleFPS <= 0 || c.ActiveFPS <= 0:
		return fmt.Errorf("camera fps must be positive, got idle=%d active=%d", c.IdleFPS, c.ActiveFPS)
	case c.IdleFPS > c.ActiveFPS:
		return fmt.Errorf("idle fps %d exceeds active fps %d", c.IdleFPS, c.ActiveFPS)
	case c.MotionThreshold <= 0 || c.MotionThreshold > 100:
		return fmt.Errorf("motion threshold must be in (0,100], got %f", c.MotionThreshold)
	case c.IdleAfter < 0:
		return fmt.Errorf("idle_after must be >= 0, got %s", c.IdleAfter)
	}
	return nil
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	width    int
	height   int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a closed Camera for cfg.Device at cfg.Width x
// cfg.Height, starting at cfg.IdleFPS.
func NewCamera(cfg Config) Camera {
	return &cameraImpl{
		deviceID: cfg.Device,
		width:    cfg.Width,
		height:   cfg.Height,
		fps:      cfg.IdleFPS,
	}
}

// Open opens the camera for capturing frames.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open video device %d: %w", c.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read from video device %d failed", c.deviceID)
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
