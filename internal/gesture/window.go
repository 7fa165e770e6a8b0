package gesture

// Window is a fixed-capacity FIFO that evicts its oldest element when an
// append would exceed capacity. It is backed by a circular buffer.
type Window[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

// NewWindow creates a window holding at most capacity elements.
// Capacities below 1 are raised to 1.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Cap returns the fixed capacity.
func (w *Window[T]) Cap() int {
	return len(w.buf)
}

// Len returns the number of elements currently held.
func (w *Window[T]) Len() int {
	return w.count
}

// IsFull reports whether Len equals Cap.
func (w *Window[T]) IsFull() bool {
	return w.count == len(w.buf)
}

// PeekHead returns the oldest element without removing it.
// This is the element the next Enqueue evicts when the window is full.
func (w *Window[T]) PeekHead() (T, bool) {
	if w.count == 0 {
		var zero T
		return zero, false
	}
	return w.buf[w.head], true
}

// Enqueue appends item at the tail. When the window was already full the
// oldest element is removed and returned with evicted set to true.
func (w *Window[T]) Enqueue(item T) (old T, evicted bool) {
	if w.IsFull() {
		old = w.buf[w.head]
		w.buf[w.head] = item
		w.head = (w.head + 1) % len(w.buf)
		return old, true
	}
	w.buf[(w.head+w.count)%len(w.buf)] = item
	w.count++
	return old, false
}

// Items returns a copy of the held elements, oldest first.
func (w *Window[T]) Items() []T {
	items := make([]T, w.count)
	for i := 0; i < w.count; i++ {
		items[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return items
}
