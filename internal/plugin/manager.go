package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tidwall/jsonc"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

const manifestName = "plugin.json"

// errNoManifest marks a directory that simply is not a plugin.
var errNoManifest = errors.New("no manifest")

// Manager holds the plugins found in one directory.
type Manager struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	byName map[string]*Plugin
	sorted []*Plugin
}

// NewManager creates a Manager for dir. A nil logger uses slog.Default().
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{dir: dir, logger: logger, byName: map[string]*Plugin{}}
}

// Discover rescans the directory. Every subdirectory holding a valid
// plugin.json becomes a plugin; manifests may carry comments and trailing
// commas. Broken plugins are logged and skipped, and when two manifests
// share a name the first directory in lexical order wins. A missing
// directory yields no plugins.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && isDir(m.dir) {
			return fmt.Errorf("read plugin dir: %w", err)
		}
		entries = nil
	}

	found := map[string]*Plugin{}
	var sorted []*Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		p, err := loadPlugin(path)
		if errors.Is(err, errNoManifest) {
			continue
		}
		if err != nil {
			m.logger.Warn("skipping plugin", "dir", path, "error", err)
			continue
		}
		if prev, dup := found[p.Manifest.Name]; dup {
			m.logger.Warn("duplicate plugin name", "name", p.Manifest.Name, "kept", prev.Path, "skipped", path)
			continue
		}
		found[p.Manifest.Name] = p
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Manifest.Name < sorted[j].Manifest.Name
	})

	m.mu.Lock()
	m.byName, m.sorted = found, sorted
	m.mu.Unlock()

	m.logger.Info("discovered plugins", "dir", m.dir, "count", len(sorted))
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNoManifest
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestName, err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, fmt.Errorf("%s needs a name and an executable", manifestName)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns the plugin called name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	p, ok := m.byName[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Plugin(nil), m.sorted...)
}

// PluginDir returns the scanned directory.
func (m *Manager) PluginDir() string { return m.dir }
