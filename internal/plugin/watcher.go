package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of file events into one rediscovery.
const DefaultDebounce = 250 * time.Millisecond

// Watcher rediscovers plugins when the plugin directory changes.
type Watcher struct {
	manager  *Manager
	debounce time.Duration
	onChange func()
}

// NewWatcher creates a Watcher for m. onChange, if set, runs after every
// rediscovery.
func NewWatcher(m *Manager, debounce time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		manager:  m,
		debounce: debounce,
		onChange: onChange,
	}
}

// Run watches the plugin directory and its immediate subdirectories until
// ctx is cancelled. The directory is created if missing.
func (w *Watcher) Run(ctx context.Context) error {
	dir := w.manager.PluginDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create plugin dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watchSubdirs(fsw, dir)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					fsw.Add(ev.Name)
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.manager.logger.Warnw("Plugin watcher error", "error", err)

		case <-timer.C:
			if err := w.manager.Discover(); err != nil {
				w.manager.logger.Errorw("Plugin rediscovery failed", "error", err)
				continue
			}
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

func (w *Watcher) watchSubdirs(fsw *fsnotify.Watcher, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := fsw.Add(filepath.Join(dir, e.Name())); err != nil {
				w.manager.logger.Warnw("Cannot watch plugin directory", "plugin", e.Name(), "error", err)
			}
		}
	}
}
