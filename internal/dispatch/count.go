package dispatch

import (
	"fmt"

	"github.com/ayusman/gestureos/internal/gesture"
)

// CountUpdateFunc receives the observed identity and the current frequency of
// the identity a count trigger tracks.
type CountUpdateFunc func(observed gesture.Identity, count int)

// OnCount registers a count trigger for id. On every dispatched identity,
// onUpdate (if set) receives the current frequency of id; onComplete fires
// when the observed identity is id and its frequency equals target exactly.
//
// The trigger stays registered after completing, so it fires again whenever
// the frequency falls below target and climbs back to it. Callers that want a
// single completion call OffCount from onComplete.
func (m *Manager) OnCount(id gesture.Identity, target int, onComplete Callback, onUpdate CountUpdateFunc) (Token, error) {
	if onComplete == nil {
		return 0, ErrNilCallback
	}
	if id.IsAny() {
		return 0, ErrWildcardIdentity
	}
	if !id.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidIdentity, id.Key())
	}
	if target < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, target)
	}

	return m.OnAny(func(observed gesture.Identity) {
		current := m.Frequency(id)
		if onUpdate != nil {
			onUpdate(observed, current)
		}
		if observed == id && current == target {
			onComplete(observed)
		}
	})
}

// OffCount removes a count trigger. It is equivalent to OffAny.
func (m *Manager) OffCount(token Token) {
	m.OffAny(token)
}
