package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ayusman/handshelf/internal/gesture"
)

// EnvPrefix prefixes every environment variable read by handshelf.
const EnvPrefix = "HANDSHELF_"

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = EnvPrefix + "CONFIG"

// LoadDotenv loads KEY=VALUE files into the environment. Missing files are
// skipped and variables already set are kept.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with HANDSHELF_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	str("ADDR", &c.Server.Addr)
	str("STATIC_DIR", &c.Server.StaticDir)
	str("DATA_DIR", &c.DataDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("DETECTOR_SCRIPT", &c.Detector.Script)
	str("PYTHON", &c.Detector.Python)
	str("PLUGIN_DIR", &c.Actions.Dir)

	if v, ok := lookup(EnvPrefix + "CAMERA"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCAMERA: %w", EnvPrefix, err)
		}
		c.Camera.Device = n
	}
	if v, ok := lookup(EnvPrefix + "MODE"); ok && v != "" {
		m, err := gesture.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%sMODE: %w", EnvPrefix, err)
		}
		c.Engine.DefaultMode = m
	}
	for key, dst := range map[string]*bool{
		"TRAY":                   &c.Tray,
		"DETECTOR_MOCK_FALLBACK": &c.Detector.MockFallback,
	} {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}

	c.expandPaths()
	return nil
}
