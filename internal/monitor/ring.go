package monitor

// ring is a fixed-capacity FIFO buffer. Appending beyond capacity
// evicts the oldest entry. Not safe for concurrent use; callers hold
// their own lock.
type ring[T any] struct {
	buf   []T
	start int
	n     int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) Len() int { return r.n }

func (r *ring[T]) Append(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	// Full: overwrite oldest.
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Items returns the entries oldest-first as a fresh slice.
func (r *ring[T]) Items() []T {
	out := make([]T, 0, r.n)
	for i := 0; i < r.n; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

// Last returns up to n newest entries, oldest-first.
func (r *ring[T]) Last(n int) []T {
	if n >= r.n {
		return r.Items()
	}
	out := make([]T, 0, n)
	for i := r.n - n; i < r.n; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}
