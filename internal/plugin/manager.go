package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager manages plugin discovery and access.
type Manager struct {
	pluginDir string
	logger    *zap.SugaredLogger
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string, logger *zap.SugaredLogger) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		pluginDir: pluginDir,
		logger:    logger,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover scans the plugin directory for plugin.json files and loads them,
// replacing the previous set. Each subdirectory is expected to be a plugin.
func (m *Manager) Discover() error {
	plugins, err := m.scan()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.plugins = plugins
	m.mu.Unlock()

	m.logger.Infow("Plugins discovered", "dir", m.pluginDir, "count", len(plugins))
	return nil
}

func (m *Manager) scan() (map[string]*Plugin, error) {
	plugins := make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return plugins, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return plugins, nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifestData, err := os.ReadFile(filepath.Join(pluginPath, "plugin.json"))
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warnw("Skipping unreadable plugin manifest", "plugin", entry.Name(), "error", err)
			}
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			m.logger.Warnw("Skipping invalid plugin manifest", "plugin", entry.Name(), "error", err)
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.logger.Warnw("Skipping plugin without name or executable", "plugin", entry.Name())
			continue
		}

		plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
	}

	return plugins, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
