// Package dispatch turns a stream of two-hand gesture predictions into
// priority-arbitrated callback invocations, wildcard notifications and
// windowed-frequency count triggers.
//
// Every prediction updates a fixed-size window per hand together with a
// frequency table. The highest-priority callback registered for each hand's
// exact identity is then invoked, followed by every wildcard observer.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Engine defaults.
const (
	// DefaultWindowSize is the number of recent identities tracked per hand.
	DefaultWindowSize = 5
	// DefaultQueueSize is the dispatch queue depth shared by all sources.
	DefaultQueueSize = 64
)

// Config holds configuration options for a Manager.
type Config struct {
	WindowSize int
	QueueSize  int
	Logger     *zap.SugaredLogger
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		WindowSize: DefaultWindowSize,
		QueueSize:  DefaultQueueSize,
	}
}

// Manager owns the per-hand windows, the frequency table and both callback
// registries, and serializes every attached Source onto one dispatch path.
type Manager struct {
	config  Config
	logger  *zap.SugaredLogger
	sources []Source

	// mu guards windows, frequency and both registries.
	mu         sync.Mutex
	windows    map[gesture.Hand]*gesture.Window[gesture.Identity]
	frequency  *gesture.FrequencyTable
	priorities *PriorityRegistry
	wildcards  *WildcardRegistry

	// lifeMu guards the lifecycle fields below.
	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	enqueue func(pair gesture.PredictionPair) bool
	wg      sync.WaitGroup
}

// New creates a Manager with the given configuration and input sources.
// Sources start on Register and stop on Unregister.
func New(config Config, sources ...Source) *Manager {
	if config.WindowSize <= 0 {
		config.WindowSize = DefaultWindowSize
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	windows := make(map[gesture.Hand]*gesture.Window[gesture.Identity], len(gesture.Hands))
	for _, hand := range gesture.Hands {
		windows[hand] = gesture.NewWindow[gesture.Identity](config.WindowSize)
	}

	return &Manager{
		config:     config,
		logger:     logger,
		sources:    sources,
		windows:    windows,
		frequency:  gesture.NewFrequencyTable(),
		priorities: NewPriorityRegistry(),
		wildcards:  NewWildcardRegistry(),
	}
}

// On binds cb to a concrete identity at priority. Only the callback with the
// highest priority for an identity runs on each dispatch. The returned
// priority is the handle for Off.
func (m *Manager) On(id gesture.Identity, cb Callback, priority int) (int, error) {
	if cb == nil {
		return 0, ErrNilCallback
	}
	if id.IsAny() {
		return 0, ErrWildcardIdentity
	}
	if !id.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidIdentity, id.Key())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priorities.Register(id, cb, priority)
}

// Off removes the binding for id at priority. Unknown bindings are ignored.
func (m *Manager) Off(id gesture.Identity, priority int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorities.Unregister(id, priority)
}

// OnAny registers an observer that receives every dispatched identity.
func (m *Manager) OnAny(cb Callback) (Token, error) {
	if cb == nil {
		return 0, ErrNilCallback
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wildcards.Register(cb), nil
}

// OffAny removes the wildcard observer for token. Unknown tokens are ignored.
func (m *Manager) OffAny(token Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wildcards.Unregister(token)
}

// Frequency returns how many times id appears in its hand's current window.
func (m *Manager) Frequency(id gesture.Identity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frequency.Get(id)
}

// Window returns a copy of the recent identities for hand, oldest first.
func (m *Manager) Window(hand gesture.Hand) []gesture.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[hand]
	if !ok {
		return nil
	}
	return w.Items()
}

// WindowSize returns the per-hand window capacity.
func (m *Manager) WindowSize() int {
	return m.config.WindowSize
}

// ProcessGesture records both hands of pair in their windows, invokes the
// winning callback for each hand's identity, then notifies every wildcard
// observer of the left identity followed by the right identity.
//
// Callbacks run after the bookkeeping lock is released, against the
// registrations that were live when the pair was recorded.
func (m *Manager) ProcessGesture(pair gesture.PredictionPair) {
	left, right := pair.Identities()

	m.mu.Lock()
	m.addGesture(left)
	m.addGesture(right)
	leftWinner, hasLeft := m.priorities.Resolve(left)
	rightWinner, hasRight := m.priorities.Resolve(right)
	observers := m.wildcards.Snapshot()
	m.mu.Unlock()

	m.logger.Debugw("Gesture dispatched",
		"left", left.Key(),
		"right", right.Key(),
		"observers", len(observers),
	)

	if hasLeft {
		m.invoke(left, leftWinner)
	}
	if hasRight {
		m.invoke(right, rightWinner)
	}
	for _, id := range []gesture.Identity{left, right} {
		for _, cb := range observers {
			m.invoke(id, cb)
		}
	}
}

// addGesture counts id, then accounts for the element the window is about to
// evict before enqueuing, so each decrement matches the displaced identity.
// Callers must hold m.mu.
func (m *Manager) addGesture(id gesture.Identity) {
	w, ok := m.windows[id.Hand]
	if !ok {
		return
	}

	m.frequency.Increment(id)
	if w.IsFull() {
		if head, ok := w.PeekHead(); ok {
			m.frequency.Decrement(head)
		}
	}
	w.Enqueue(id)
}

// invoke runs cb and recovers a panic so one faulty callback cannot stop the
// remaining deliveries or the dispatch loop.
func (m *Manager) invoke(id gesture.Identity, cb Callback) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorw("Gesture callback panicked", "gesture", id.Key(), "panic", r)
		}
	}()
	cb(id)
}

// Register starts the dispatch loop and every attached source. Pairs from all
// sources are processed one at a time, in arrival order.
func (m *Manager) Register(ctx context.Context) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.cancel != nil {
		return ErrAlreadyRegistered
	}

	ctx, cancel := context.WithCancel(ctx)
	queue := make(chan gesture.PredictionPair, m.config.QueueSize)
	// enqueue reports false when the pair was dropped because the manager
	// is shutting down.
	enqueue := func(pair gesture.PredictionPair) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case queue <- pair:
			return true
		case <-ctx.Done():
			return false
		}
	}
	submit := func(pair gesture.PredictionPair) {
		enqueue(pair)
	}

	m.cancel = cancel
	m.enqueue = enqueue

	m.wg.Add(1)
	go m.loop(ctx, queue)

	for _, src := range m.sources {
		m.wg.Add(1)
		go func(src Source) {
			defer m.wg.Done()
			if err := src.Run(ctx, submit); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Errorw("Gesture source stopped", "source", src.Name(), "error", err)
			}
		}(src)
	}

	m.logger.Infow("Gesture manager registered", "sources", len(m.sources), "window", m.config.WindowSize)
	return nil
}

// Unregister stops every source and the dispatch loop and waits for them to
// exit. It is safe to call more than once. It must not be called from a
// gesture callback.
func (m *Manager) Unregister() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.cancel == nil {
		return
	}

	m.cancel()
	m.wg.Wait()
	m.cancel = nil
	m.enqueue = nil

	m.logger.Infow("Gesture manager unregistered")
}

// Registered reports whether the dispatch loop is running.
func (m *Manager) Registered() bool {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	return m.cancel != nil
}

// Submit validates pair and enqueues it onto the dispatch loop. It blocks
// while the queue is full and returns ErrNotRegistered if the manager is
// detached or unregisters before the pair is accepted.
func (m *Manager) Submit(pair gesture.PredictionPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	m.lifeMu.Lock()
	enqueue := m.enqueue
	m.lifeMu.Unlock()

	if enqueue == nil || !enqueue(pair) {
		return ErrNotRegistered
	}
	return nil
}

// loop drains the queue until ctx is cancelled.
func (m *Manager) loop(ctx context.Context, queue <-chan gesture.PredictionPair) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case pair := <-queue:
			if ctx.Err() != nil {
				return
			}
			m.ProcessGesture(pair)
		}
	}
}
