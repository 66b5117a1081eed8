// Package config loads handshelf configuration.
//
// Values are layered in this order, later layers winning:
//   - Default()
//   - the YAML file given by --config or HANDSHELF_CONFIG
//   - HANDSHELF_* environment variables, including those from a .env file
//   - command-line flags
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handshelf/internal/capture"
	"github.com/ayusman/handshelf/internal/detector"
	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/plugin"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is the complete handshelf configuration.
type Config struct {
	// Server configures the HTTP control API and UI.
	Server ServerConfig `yaml:"server"`

	// Camera configures frame capture and the motion gate.
	Camera capture.Config `yaml:"camera"`

	// Detector configures the hand pose estimator.
	Detector detector.Config `yaml:"detector"`

	// Engine holds every gesture tunable.
	Engine gesture.Config `yaml:"engine"`

	// Actions binds gestures to plugin actions.
	Actions plugin.Config `yaml:"actions"`

	// Log configures the slog handler.
	Log LogConfig `yaml:"log"`

	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir"`

	// JournalRetention prunes journal sessions older than this at
	// start-up. Zero keeps everything.
	JournalRetention time.Duration `yaml:"journal_retention"`

	// Tray shows the system tray menu.
	Tray bool `yaml:"tray"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `yaml:"addr"`

	// StaticDir is served at "/". Empty searches the usual web
	// directories.
	StaticDir string `yaml:"static_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	dataDir := filepath.Join(homeDir, ".handshelf")

	actions := plugin.DefaultConfig()
	actions.Dir = filepath.Join(dataDir, "plugins")

	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Engine:   gesture.DefaultConfig(),
		Actions:  actions,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		DataDir:          dataDir,
		JournalRetention: 30 * 24 * time.Hour,
		Tray:             true,
	}
}

// Load returns Default() overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.expandPaths()
	return cfg, nil
}

// decode merges YAML into c. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandPaths expands environment variables and a leading ~ in paths.
func (c *Config) expandPaths() {
	c.DataDir = expandPath(c.DataDir)
	c.Server.StaticDir = expandPath(c.Server.StaticDir)
	c.Detector.Script = expandPath(c.Detector.Script)
	c.Detector.Python = expandPath(c.Detector.Python)
	c.Actions.Dir = expandPath(c.Actions.Dir)
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// DBPath returns the SQLite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handshelf.db")
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalid)
	}
	if c.JournalRetention < 0 {
		return fmt.Errorf("%w: journal_retention must not be negative", ErrInvalid)
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("%w: camera: %v", ErrInvalid, err)
	}
	if c.Detector.MaxHands < 0 {
		return fmt.Errorf("%w: detector max_hands %d is negative", ErrInvalid, c.Detector.MaxHands)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("%w: detector min_confidence %g not in [0, 1]", ErrInvalid, c.Detector.MinConfidence)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("%w: engine: %v", ErrInvalid, err)
	}
	if c.Actions.Timeout <= 0 {
		return fmt.Errorf("%w: actions timeout must be positive", ErrInvalid)
	}
	if len(c.Actions.Bindings) > 0 && c.Actions.Dir == "" {
		return fmt.Errorf("%w: actions dir is required with bindings", ErrInvalid)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q is not text or json", ErrInvalid, c.Log.Format)
	}
	return nil
}
