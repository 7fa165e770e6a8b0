package gesture

// FrequencyTable counts how many times each identity currently appears in
// the observed recent history. Counts never go negative; an identity whose
// count drops to zero is removed.
type FrequencyTable struct {
	counts map[Identity]int
}

// NewFrequencyTable creates an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[Identity]int)}
}

// Increment adds one occurrence of id and returns the new count.
func (f *FrequencyTable) Increment(id Identity) int {
	f.counts[id]++
	return f.counts[id]
}

// Decrement removes one occurrence of id and returns the new count.
// Decrementing an absent identity is a no-op.
func (f *FrequencyTable) Decrement(id Identity) int {
	n, ok := f.counts[id]
	if !ok {
		return 0
	}
	if n <= 1 {
		delete(f.counts, id)
		return 0
	}
	f.counts[id] = n - 1
	return n - 1
}

// Get returns the current count for id.
func (f *FrequencyTable) Get(id Identity) int {
	return f.counts[id]
}

// Snapshot returns a copy of all non-zero counts.
func (f *FrequencyTable) Snapshot() map[Identity]int {
	out := make(map[Identity]int, len(f.counts))
	for id, n := range f.counts {
		out[id] = n
	}
	return out
}
