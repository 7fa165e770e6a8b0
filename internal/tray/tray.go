// Package tray provides the system tray interface for GestureOS.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Tray represents the system tray application. It doubles as an engine
// observer, showing the last dispatched gesture and hold progress.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuHold        *systray.MenuItem
}

// New creates a new Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("GestureOS")
	systray.SetTooltip("GestureOS gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture actions")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem("Last: none", "Last detected gesture")
	t.menuLastGesture.Disable()
	t.menuHold = systray.AddMenuItem("Hold: none", "Held gesture progress")
	t.menuHold.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit GestureOS")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastGesture != nil {
		if name == "" {
			t.menuLastGesture.SetTitle("Last: none")
		} else {
			t.menuLastGesture.SetTitle("Last: " + name)
		}
	}
}

// SetHold updates the hold progress display in the menu.
func (t *Tray) SetHold(name string, count, target int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuHold != nil {
		t.menuHold.SetTitle(holdTitle(name, count, target))
	}
}

func holdTitle(name string, count, target int) string {
	if name == "" {
		return "Hold: none"
	}
	if count >= target {
		return fmt.Sprintf("Hold: %s done", name)
	}
	return fmt.Sprintf("Hold: %s %d/%d", name, count, target)
}

// GestureDispatched shows every gesture except none as the last gesture.
func (t *Tray) GestureDispatched(id gesture.Identity) {
	if id.Sign == gesture.SignNone {
		return
	}
	t.SetLastGesture(id.Key())
}

// HoldProgress shows the running count of a held gesture.
func (t *Tray) HoldProgress(id gesture.Identity, count, target int) {
	t.SetHold(id.Key(), count, target)
}

// HoldComplete marks a held gesture as done.
func (t *Tray) HoldComplete(id gesture.Identity, target int) {
	t.SetHold(id.Key(), target, target)
}

// SetEnabled updates the displayed enabled state after a change made
// outside the tray. It does not call the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
