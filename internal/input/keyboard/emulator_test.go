package keyboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/gestureos/internal/gesture"
)

func TestEmulator_HeldSigns(t *testing.T) {
	e := NewEmulator(DefaultConfig())

	if got := e.Held(); got != gesture.Pair(gesture.SignNone, gesture.SignNone) {
		t.Errorf("Held() = %+v, want none/none", got)
	}

	e.KeyDown("a")
	e.KeyDown("2")
	if got := e.Held(); got != gesture.Pair(gesture.SignPalm, gesture.SignTwo) {
		t.Errorf("Held() = %+v, want palm/two", got)
	}

	// Releasing a key that no longer holds the hand leaves it alone.
	e.KeyDown("ArrowRight")
	e.KeyUp("2")
	if got := e.Held(); got.Right.Sign != gesture.SignSwipeRight {
		t.Errorf("right = %s, want swipeRight", got.Right.Sign)
	}

	e.KeyUp("ArrowRight")
	e.KeyUp("a")
	if got := e.Held(); got != gesture.Pair(gesture.SignNone, gesture.SignNone) {
		t.Errorf("Held() = %+v, want none/none", got)
	}

	if e.KeyDown("z") || e.KeyUp("z") {
		t.Error("unmapped key should report false")
	}
}

func TestEmulator_RunHeartbeat(t *testing.T) {
	config := DefaultConfig()
	config.Period = 5 * time.Millisecond
	e := NewEmulator(config)
	e.KeyDown("d")

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []gesture.PredictionPair
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx, func(p gesture.PredictionPair) {
			mu.Lock()
			got = append(got, p)
			mu.Unlock()
		})
	}()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("got %d heartbeats, want at least 3", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	stopped := len(got)
	for _, p := range got {
		if p.Right.Sign != gesture.SignPalm || p.Left.Sign != gesture.SignNone {
			t.Errorf("heartbeat = %+v, want none/palm", p)
		}
	}
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(got) != stopped {
		t.Errorf("heartbeat continued after cancel: %d -> %d", stopped, len(got))
	}
}

type scriptedReader struct {
	keys []string
}

func (r *scriptedReader) ReadKeys(ctx context.Context, h KeyHandler) error {
	for _, k := range r.keys {
		h.KeyDown(k)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestEmulator_RunStartsReaders(t *testing.T) {
	config := DefaultConfig()
	config.Period = 5 * time.Millisecond
	config.Readers = []KeyReader{&scriptedReader{keys: []string{"4"}}}
	e := NewEmulator(config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan gesture.PredictionPair, 1)
	go e.Run(ctx, func(p gesture.PredictionPair) {
		if p.Right.Sign == gesture.SignFour {
			select {
			case seen <- p:
			default:
			}
		}
	})

	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("reader key never reached the heartbeat")
	}
}

type recordingHandler struct {
	down, up []string
}

func (h *recordingHandler) KeyDown(k string) bool { h.down = append(h.down, k); return true }
func (h *recordingHandler) KeyUp(k string) bool   { h.up = append(h.up, k); return true }

func TestHandleEvent(t *testing.T) {
	h := &recordingHandler{}

	handleEvent(inputEvent{Type: evKey, Code: 30, Value: keyPress}, h)
	handleEvent(inputEvent{Type: evKey, Code: 30, Value: keyAutorepeat}, h)
	handleEvent(inputEvent{Type: evKey, Code: 30, Value: keyRelease}, h)
	handleEvent(inputEvent{Type: 0x02, Code: 30, Value: keyPress}, h)
	handleEvent(inputEvent{Type: evKey, Code: 999, Value: keyPress}, h)

	if len(h.down) != 1 || h.down[0] != "a" {
		t.Errorf("down = %v, want [a]", h.down)
	}
	if len(h.up) != 1 || h.up[0] != "a" {
		t.Errorf("up = %v, want [a]", h.up)
	}
}
