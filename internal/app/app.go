// Package app wires stored bindings to the gesture manager and runs the
// bound plugin actions.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/dispatch"
	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/store"
)

// ErrAlreadyStarted is returned by Start on a running App.
var ErrAlreadyStarted = errors.New("app already started")

// Observer receives engine activity for display.
type Observer interface {
	GestureDispatched(id gesture.Identity)
	HoldProgress(id gesture.Identity, count, target int)
	HoldComplete(id gesture.Identity, target int)
}

// Executor runs a plugin action.
type Executor interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	Manager   *dispatch.Manager
	Plugins   *plugin.Manager
	Executor  Executor
	Observers []Observer
	// WatchPlugins rediscovers plugins when the plugin directory changes.
	WatchPlugins bool
	Logger       *zap.SugaredLogger
}

type pressHandle struct {
	id       gesture.Identity
	priority int
}

// App registers the enabled bindings with the manager and executes their
// actions while enabled.
type App struct {
	config  Config
	logger  *zap.SugaredLogger
	enabled atomic.Bool

	// mu guards the lifecycle fields. ctx is written by Start before the
	// manager is registered.
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	observer dispatch.Token
	bg       sync.WaitGroup
	actions  sync.WaitGroup

	// bindMu guards the registered binding handles.
	bindMu  sync.Mutex
	presses []pressHandle
	holds   []dispatch.Token
}

// New creates a new App. The enabled state is restored from the store and
// defaults to enabled.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	a := &App{
		config: config,
		logger: logger,
	}

	enabled := true
	if config.Store != nil {
		enabled = config.Store.Settings().GetBool(store.SettingEnabled, true)
	}
	a.enabled.Store(enabled)
	return a
}

// SetEnabled enables or disables action execution and persists the choice.
// Gestures keep flowing to observers while disabled.
func (a *App) SetEnabled(enabled bool) error {
	a.enabled.Store(enabled)
	a.logger.Infow("Action execution toggled", "enabled", enabled)
	if a.config.Store == nil {
		return nil
	}
	return a.config.Store.Settings().SetBool(store.SettingEnabled, enabled)
}

// IsEnabled returns whether actions are currently executed.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Start discovers plugins, registers the stored bindings and starts the
// manager. It returns ErrAlreadyStarted if the app is running.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return ErrAlreadyStarted
	}

	if err := a.config.Plugins.Discover(); err != nil {
		a.logger.Warnw("Plugin discovery failed", "dir", a.config.Plugins.PluginDir(), "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a.ctx = ctx

	if err := a.LoadBindings(); err != nil {
		cancel()
		return err
	}

	token, err := a.config.Manager.OnAny(a.notifyDispatched)
	if err != nil {
		cancel()
		a.unbind()
		return err
	}

	if err := a.config.Manager.Register(ctx); err != nil {
		cancel()
		a.config.Manager.OffAny(token)
		a.unbind()
		return err
	}

	a.observer = token
	a.cancel = cancel

	if a.config.WatchPlugins {
		w := plugin.NewWatcher(a.config.Plugins, plugin.DefaultDebounce, a.checkBindings)
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Errorw("Plugin watcher stopped", "error", err)
			}
		}()
	}

	a.logger.Infow("App started", "enabled", a.IsEnabled())
	return nil
}

// Stop unregisters the manager and waits for in-flight actions.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel == nil {
		return
	}

	a.cancel()
	a.config.Manager.Unregister()
	a.bg.Wait()
	a.actions.Wait()

	a.config.Manager.OffAny(a.observer)
	a.unbind()
	a.cancel = nil

	a.logger.Infow("App stopped")
}

// LoadBindings replaces the registered bindings with the enabled bindings
// in the store. A binding the manager rejects is logged and skipped.
func (a *App) LoadBindings() error {
	bindings, err := a.config.Store.Bindings().ListEnabled()
	if err != nil {
		return err
	}

	a.bindMu.Lock()
	defer a.bindMu.Unlock()

	a.unbindLocked()

	for _, b := range bindings {
		id := b.Identity()
		switch b.Kind {
		case store.BindingPress:
			priority, err := a.config.Manager.On(id, a.pressAction(b), b.Priority)
			if err != nil {
				a.logger.Warnw("Skipping binding", "binding", b.ID, "gesture", id.Key(), "error", err)
				continue
			}
			a.presses = append(a.presses, pressHandle{id: id, priority: priority})

		case store.BindingHold:
			if window := a.config.Manager.WindowSize(); b.HoldCount > window {
				a.logger.Warnw("Skipping hold binding that can never complete",
					"binding", b.ID, "gesture", id.Key(), "hold_count", b.HoldCount, "window", window)
				continue
			}
			token, err := a.config.Manager.OnCount(id, b.HoldCount, a.holdAction(b), a.holdProgress(b))
			if err != nil {
				a.logger.Warnw("Skipping binding", "binding", b.ID, "gesture", id.Key(), "error", err)
				continue
			}
			a.holds = append(a.holds, token)

		default:
			a.logger.Warnw("Skipping binding with unknown kind", "binding", b.ID, "kind", b.Kind)
		}
	}

	a.logger.Infow("Bindings loaded", "press", len(a.presses), "hold", len(a.holds))
	return nil
}

// ReloadBindings reloads the bindings and logs any failure. It is suitable
// as a change callback.
func (a *App) ReloadBindings() {
	if err := a.LoadBindings(); err != nil {
		a.logger.Errorw("Failed to reload bindings", "error", err)
	}
}

func (a *App) unbind() {
	a.bindMu.Lock()
	defer a.bindMu.Unlock()
	a.unbindLocked()
}

func (a *App) unbindLocked() {
	for _, h := range a.presses {
		a.config.Manager.Off(h.id, h.priority)
	}
	for _, token := range a.holds {
		a.config.Manager.OffCount(token)
	}
	a.presses = nil
	a.holds = nil
}

func (a *App) notifyDispatched(id gesture.Identity) {
	for _, o := range a.config.Observers {
		o.GestureDispatched(id)
	}
}

func (a *App) pressAction(b *store.Binding) dispatch.Callback {
	return func(id gesture.Identity) {
		a.runAction(b, id, 0)
	}
}

func (a *App) holdAction(b *store.Binding) dispatch.Callback {
	return func(id gesture.Identity) {
		for _, o := range a.config.Observers {
			o.HoldComplete(id, b.HoldCount)
		}
		a.runAction(b, id, b.HoldCount)
	}
}

// holdProgress reports the running count once per frame in which the bound
// gesture is observed.
func (a *App) holdProgress(b *store.Binding) dispatch.CountUpdateFunc {
	bound := b.Identity()
	return func(observed gesture.Identity, count int) {
		if observed != bound {
			return
		}
		for _, o := range a.config.Observers {
			o.HoldProgress(bound, count, b.HoldCount)
		}
	}
}

// runAction executes the binding's plugin action in the background.
func (a *App) runAction(b *store.Binding, id gesture.Identity, count int) {
	if !a.IsEnabled() {
		return
	}

	p, err := a.config.Plugins.Get(b.PluginName)
	if err != nil {
		a.logger.Warnw("Bound plugin unavailable", "binding", b.ID, "plugin", b.PluginName, "error", err)
		return
	}

	req := &plugin.Request{
		Action:  b.ActionName,
		Gesture: id.Key(),
		Hand:    id.Hand.String(),
		Sign:    id.Sign.String(),
		Kind:    string(b.Kind),
		Count:   count,
		Config:  b.Config,
	}

	// Callbacks only run between Register and Unregister, so ctx is stable.
	ctx := a.ctx

	a.actions.Add(1)
	go func() {
		defer a.actions.Done()

		resp, err := a.config.Executor.Execute(ctx, p, req)
		switch {
		case err != nil:
			a.logger.Errorw("Action failed", "plugin", p.Manifest.Name, "action", req.Action, "gesture", req.Gesture, "error", err)
		case !resp.Success:
			a.logger.Warnw("Action reported failure", "plugin", p.Manifest.Name, "action", req.Action, "gesture", req.Gesture, "error", resp.Error)
		default:
			a.logger.Debugw("Action executed", "plugin", p.Manifest.Name, "action", req.Action, "gesture", req.Gesture)
		}
	}()
}

// checkBindings warns about enabled bindings whose plugin or action is no
// longer available after a plugin rescan.
func (a *App) checkBindings() {
	bindings, err := a.config.Store.Bindings().ListEnabled()
	if err != nil {
		a.logger.Errorw("Failed to list bindings", "error", err)
		return
	}

	for _, b := range bindings {
		p, err := a.config.Plugins.Get(b.PluginName)
		if err != nil {
			a.logger.Warnw("Binding references missing plugin", "binding", b.ID, "plugin", b.PluginName)
			continue
		}
		if !p.HasAction(b.ActionName) {
			a.logger.Warnw("Binding references missing action", "binding", b.ID, "plugin", b.PluginName, "action", b.ActionName)
		}
	}
}
