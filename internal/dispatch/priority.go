package dispatch

import (
	"fmt"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Callback receives the identity that triggered it.
type Callback func(id gesture.Identity)

// PriorityRegistry binds at most one callback per (identity, priority) and
// resolves an identity to the callback with the numerically highest priority.
// It is not safe for concurrent use; Manager guards it.
type PriorityRegistry struct {
	entries map[gesture.Identity]map[int]Callback
}

// NewPriorityRegistry creates an empty registry.
func NewPriorityRegistry() *PriorityRegistry {
	return &PriorityRegistry{
		entries: make(map[gesture.Identity]map[int]Callback),
	}
}

// Register binds cb to id at priority and returns the priority as the handle.
// Registering an occupied priority fails with ErrDuplicatePriority and leaves
// the existing binding intact.
func (r *PriorityRegistry) Register(id gesture.Identity, cb Callback, priority int) (int, error) {
	byPriority, ok := r.entries[id]
	if !ok {
		r.entries[id] = map[int]Callback{priority: cb}
		return priority, nil
	}
	if _, taken := byPriority[priority]; taken {
		return 0, fmt.Errorf("%w: %s at %d", ErrDuplicatePriority, id.Key(), priority)
	}
	byPriority[priority] = cb
	return priority, nil
}

// Unregister removes the binding at priority. Unknown bindings are ignored.
func (r *PriorityRegistry) Unregister(id gesture.Identity, priority int) {
	byPriority, ok := r.entries[id]
	if !ok {
		return
	}
	delete(byPriority, priority)
	if len(byPriority) == 0 {
		delete(r.entries, id)
	}
}

// Resolve returns the callback bound at the highest priority for id.
func (r *PriorityRegistry) Resolve(id gesture.Identity) (Callback, bool) {
	byPriority, ok := r.entries[id]
	if !ok || len(byPriority) == 0 {
		return nil, false
	}

	best, first := 0, true
	for p := range byPriority {
		if first || p > best {
			best, first = p, false
		}
	}
	return byPriority[best], true
}

// Priorities returns the number of bindings held for id.
func (r *PriorityRegistry) Priorities(id gesture.Identity) int {
	return len(r.entries[id])
}
