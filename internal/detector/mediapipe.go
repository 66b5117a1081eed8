package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handshelf/internal/hand"
)

const scriptName = "mediapipe_service.py"

// ErrScriptNotFound is returned when the MediaPipe helper cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// ErrHelperFailed is returned when the helper process cannot be spawned
// or never reports ready, typically because the mediapipe module is
// missing.
var ErrHelperFailed = errors.New("mediapipe helper failed to start")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// The helper first prints a {"ready":true} line once its model is loaded.
// Frames are then sent as a 4-byte big-endian length followed by JPEG
// bytes, and the helper answers with one JSON line per frame.
type MediaPipeDetector struct {
	config    Config
	script    string
	python    string
	logger    *slog.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector. The Python
// process starts on Start or on the first detection, and again after an
// idle shutdown.
func NewMediaPipeDetector(config Config, logger *slog.Logger) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findMediaPipeScript()
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptNotFound, err)
	}

	python := config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		logger: logger,
	}, nil
}

// Detect analyzes a frame and returns detected hands.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]hand.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	hands, err := exchange(d.stdin, d.stdout, buf.GetBytes())
	if err != nil {
		// The helper is out of step with us; restart it on the next frame.
		d.logger.Warn("mediapipe exchange failed", "error", err)
		d.shutdown()
		return nil, err
	}

	d.resetIdleTimer()
	return d.config.filter(hands), nil
}

// Start launches the helper and waits until it reports ready.
func (d *MediaPipeDetector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return err
	}
	d.resetIdleTimer()
	return nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// exchange writes one length-prefixed image and reads the reply line.
func exchange(w io.Writer, r *bufio.Reader, image []byte) ([]hand.Detection, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(image)))

	if _, err := w.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(image); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeResponse(line)
}

// decodeResponse parses one reply line. Hands keep whatever number of
// points the helper sent; frames built from a short list are malformed.
func decodeResponse(line []byte) ([]hand.Detection, error) {
	var response struct {
		Hands []hand.Detection `json:"hands"`
		Error string           `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe: %s", response.Error)
	}
	return response.Hands, nil
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.python, d.script)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrHelperFailed, err)
	}

	reader := bufio.NewReader(stdout)
	if err := awaitReady(reader, d.config.StartTimeout); err != nil {
		stdin.Close()
		d.cmd.Process.Kill()
		d.cmd.Wait()
		d.cmd = nil
		return fmt.Errorf("%w: %v", ErrHelperFailed, err)
	}

	d.stdin = stdin
	d.stdout = reader
	d.started = true
	d.logger.Info("mediapipe helper started", "python", d.python, "script", d.script, "pid", d.cmd.Process.Pid)

	return nil
}

// awaitReady reads the helper's first line. A timeout of zero waits
// indefinitely; on timeout the caller must kill the helper to release
// the reading goroutine.
func awaitReady(r *bufio.Reader, timeout time.Duration) error {
	lines := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := r.ReadBytes('\n')
		if err != nil {
			errs <- fmt.Errorf("read ready line: %w", err)
			return
		}
		lines <- line
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line := <-lines:
		return decodeReady(line)
	case err := <-errs:
		return err
	case <-expired:
		return fmt.Errorf("no ready line after %s", timeout)
	}
}

func decodeReady(line []byte) error {
	var ready struct {
		Ready bool   `json:"ready"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(line, &ready); err != nil {
		return fmt.Errorf("parse ready line: %w", err)
	}
	if ready.Error != "" {
		return errors.New(ready.Error)
	}
	if !ready.Ready {
		return errors.New("helper did not report ready")
	}
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	d.logger.Info("mediapipe helper stopped")

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.logger.Debug("mediapipe helper idle")
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".handshelf", "scripts", scriptName),
	}
	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handshelf/venv/bin/python"),
	}
	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
