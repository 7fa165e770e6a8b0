package dispatch

import (
	"sort"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Token identifies a wildcard registration. Tokens come from a monotonically
// increasing counter and are never reused.
type Token uint64

// WildcardRegistry holds the observers registered against the any identity.
// Every observer receives every dispatched identity. It is not safe for
// concurrent use; Manager guards it.
type WildcardRegistry struct {
	next    Token
	entries map[Token]Callback
}

// NewWildcardRegistry creates an empty registry.
func NewWildcardRegistry() *WildcardRegistry {
	return &WildcardRegistry{
		entries: make(map[Token]Callback),
	}
}

// Register stores cb under a fresh token.
func (r *WildcardRegistry) Register(cb Callback) Token {
	r.next++
	r.entries[r.next] = cb
	return r.next
}

// Unregister removes the observer for token. Unknown tokens are ignored.
func (r *WildcardRegistry) Unregister(token Token) {
	delete(r.entries, token)
}

// Len returns the number of live observers.
func (r *WildcardRegistry) Len() int {
	return len(r.entries)
}

// Snapshot returns the live observers in token order.
func (r *WildcardRegistry) Snapshot() []Callback {
	tokens := make([]Token, 0, len(r.entries))
	for token := range r.entries {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	observers := make([]Callback, len(tokens))
	for i, token := range tokens {
		observers[i] = r.entries[token]
	}
	return observers
}

// Dispatch invokes every observer once with id.
func (r *WildcardRegistry) Dispatch(id gesture.Identity) {
	for _, cb := range r.Snapshot() {
		cb(id)
	}
}
