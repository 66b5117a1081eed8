package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ayusman/handshelf/internal/gesture"
)

// Flags are the command-line overrides.
type Flags struct {
	ConfigPath string
	EnvFile    string
	Addr       string
	Camera     int
	Mode       string
	LogLevel   string
	LogFormat  string
	Web        string
	DataDir    string
	NoTray     bool
}

// AddFlags registers the flags on fs.
func (f *Flags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to a YAML config file (default: $"+EnvConfig+")")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "load environment variables from this file if it exists")
	fs.StringVar(&f.Addr, "addr", "", "HTTP listen address")
	fs.IntVar(&f.Camera, "camera", 0, "camera device index")
	fs.StringVar(&f.Mode, "mode", "", "initial gesture mode (scan or browse)")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFormat, "log-format", "", "log format (text or json)")
	fs.StringVar(&f.Web, "web", "", "directory with the web UI")
	fs.StringVar(&f.DataDir, "data-dir", "", "directory for the database")
	fs.BoolVar(&f.NoTray, "no-tray", false, "run without the system tray menu")
}

// apply copies the flags that were set on the command line into c.
func (f *Flags) apply(fs *pflag.FlagSet, c *Config) error {
	if fs.Changed("addr") {
		c.Server.Addr = f.Addr
	}
	if fs.Changed("camera") {
		c.Camera.Device = f.Camera
	}
	if fs.Changed("mode") {
		m, err := gesture.ParseMode(f.Mode)
		if err != nil {
			return fmt.Errorf("--mode: %w", err)
		}
		c.Engine.DefaultMode = m
	}
	if fs.Changed("log-level") {
		c.Log.Level = f.LogLevel
	}
	if fs.Changed("log-format") {
		c.Log.Format = f.LogFormat
	}
	if fs.Changed("web") {
		c.Server.StaticDir = expandPath(f.Web)
	}
	if fs.Changed("data-dir") {
		c.DataDir = expandPath(f.DataDir)
	}
	if fs.Changed("no-tray") && f.NoTray {
		c.Tray = false
	}
	return nil
}

// Resolve builds the effective configuration from every layer and
// validates it. fs must already be parsed.
func (f *Flags) Resolve(fs *pflag.FlagSet) (*Config, error) {
	if err := LoadDotenv(f.EnvFile); err != nil {
		return nil, err
	}

	path := f.ConfigPath
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := f.apply(fs, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
