package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest creates dir/<sub>/plugin.json for m.
func writeManifest(t *testing.T, dir, sub string, m Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, sub)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifestBytes, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifestBytes, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writeManifest(t, tmpDir, "test-plugin", Manifest{
		Name:        "test-plugin",
		Version:     "1.0.0",
		Description: "A test plugin",
		Executable:  "test-plugin",
		Actions:     []string{"action1", "action2"},
	})

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "test-plugin" {
		t.Errorf("expected plugin name 'test-plugin', got %q", plugin.Manifest.Name)
	}
	if len(plugin.Manifest.Actions) != 2 {
		t.Errorf("expected 2 actions, got %d", len(plugin.Manifest.Actions))
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(pluginDir, "test-plugin") {
		t.Errorf("unexpected executable %q", plugin.Executable)
	}
}

func TestManager_Discover_SortedAndReplaced(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"plugin-b", "plugin-a"} {
		writeManifest(t, tmpDir, name, Manifest{Name: name, Executable: name})
	}

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 2 || plugins[0].Manifest.Name != "plugin-a" {
		t.Fatalf("List() = %v, want plugin-a first of 2", plugins)
	}

	if err := os.RemoveAll(filepath.Join(tmpDir, "plugin-b")); err != nil {
		t.Fatal(err)
	}
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if _, err := manager.Get("plugin-b"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Get(plugin-b) error = %v, want ErrPluginNotFound after removal", err)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	bad := filepath.Join(tmpDir, "bad-plugin")
	if err := os.MkdirAll(bad, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, tmpDir, "nameless", Manifest{Executable: "x"})
	if err := os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist", nil)

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir(), nil)

	if _, err := manager.Get("nonexistent-plugin"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	pluginDir := "/path/to/plugins"
	manager := NewManager(pluginDir, nil)

	if manager.PluginDir() != pluginDir {
		t.Errorf("expected plugin dir %q, got %q", pluginDir, manager.PluginDir())
	}
}
