package keyboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/dispatch"
	"github.com/ayusman/gestureos/internal/gesture"
)

// DefaultPeriod is the heartbeat interval between emulated predictions.
const DefaultPeriod = time.Second

// KeyHandler receives key transitions from a KeyReader.
type KeyHandler interface {
	KeyDown(key string) bool
	KeyUp(key string) bool
}

// KeyReader delivers key transitions from a physical input device until ctx
// is cancelled.
type KeyReader interface {
	ReadKeys(ctx context.Context, h KeyHandler) error
}

// Config holds configuration options for an Emulator.
type Config struct {
	Period  time.Duration
	Keymap  Keymap
	Readers []KeyReader
	Logger  *zap.SugaredLogger
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Period: DefaultPeriod,
		Keymap: DefaultKeymap(),
	}
}

// Emulator is a dispatch.Source that reports the signs held on the keyboard
// for both hands once per period. Hands with no held key report none.
type Emulator struct {
	period  time.Duration
	keymap  Keymap
	readers []KeyReader
	logger  *zap.SugaredLogger

	mu   sync.Mutex
	held map[gesture.Hand]heldKey
}

type heldKey struct {
	key  string
	sign gesture.Sign
}

var _ dispatch.Source = (*Emulator)(nil)

// NewEmulator creates an Emulator. A zero period falls back to DefaultPeriod
// and a nil keymap to DefaultKeymap.
func NewEmulator(config Config) *Emulator {
	if config.Period <= 0 {
		config.Period = DefaultPeriod
	}
	if config.Keymap == nil {
		config.Keymap = DefaultKeymap()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Emulator{
		period:  config.Period,
		keymap:  config.Keymap,
		readers: config.Readers,
		logger:  logger,
		held:    make(map[gesture.Hand]heldKey),
	}
}

// Name implements dispatch.Source.
func (e *Emulator) Name() string {
	return "keyboard"
}

// KeyDown marks the sign mapped to key as held for its hand. It reports
// whether the key is mapped.
func (e *Emulator) KeyDown(key string) bool {
	id, ok := e.keymap.Lookup(key)
	if !ok {
		return false
	}

	e.mu.Lock()
	e.held[id.Hand] = heldKey{key: normalizeKey(key), sign: id.Sign}
	e.mu.Unlock()

	e.logger.Debugw("Key held", "key", key, "gesture", id.Key())
	return true
}

// KeyUp resets the hand mapped to key to none, if key is the one holding it.
// It reports whether the key is mapped.
func (e *Emulator) KeyUp(key string) bool {
	id, ok := e.keymap.Lookup(key)
	if !ok {
		return false
	}

	e.mu.Lock()
	if cur, held := e.held[id.Hand]; held && cur.key == normalizeKey(key) {
		delete(e.held, id.Hand)
	}
	e.mu.Unlock()
	return true
}

// Held returns the prediction pair the next heartbeat will report.
func (e *Emulator) Held() gesture.PredictionPair {
	e.mu.Lock()
	defer e.mu.Unlock()

	sign := func(hand gesture.Hand) gesture.Sign {
		if h, ok := e.held[hand]; ok {
			return h.sign
		}
		return gesture.SignNone
	}
	return gesture.Pair(sign(gesture.HandLeft), sign(gesture.HandRight))
}

// Run implements dispatch.Source. It starts the configured key readers and
// submits the held pair on every tick until ctx is cancelled. Nothing is
// submitted after Run returns.
func (e *Emulator) Run(ctx context.Context, submit dispatch.SubmitFunc) error {
	var wg sync.WaitGroup
	for _, r := range e.readers {
		wg.Add(1)
		go func(r KeyReader) {
			defer wg.Done()
			if err := r.ReadKeys(ctx, e); err != nil && ctx.Err() == nil {
				e.logger.Warnw("Key reader stopped", "error", err)
			}
		}(r)
	}
	defer wg.Wait()

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	e.logger.Infow("Keyboard emulation started", "period", e.period, "readers", len(e.readers))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			submit(e.Held())
		}
	}
}
