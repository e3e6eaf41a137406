package logstream

import (
	"strconv"
	"strings"
)

// DefaultTail is the window size used when the requested tail is missing,
// non-numeric or not positive.
const DefaultTail = 20

// ResolveTail parses a user-entered tail size, falling back to DefaultTail.
func ResolveTail(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return DefaultTail
	}
	return n
}

// Ring keeps the most recent lines up to a fixed capacity. Once full, each
// Push overwrites the single oldest entry. Ring is not safe for concurrent
// use.
type Ring struct {
	buf   []string
	start int
	size  int
	total uint64
}

// NewRing returns an empty ring. Capacities below one use DefaultTail.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultTail
	}
	return &Ring{buf: make([]string, capacity)}
}

// Push appends line, evicting the oldest entry when the ring is full.
func (r *Ring) Push(line string) {
	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.start+r.size)%capacity] = line
		r.size++
	} else {
		r.buf[r.start] = line
		r.start = (r.start + 1) % capacity
	}
	r.total++
}

// SetCapacity reallocates the ring, keeping the newest min(n, Len()) lines
// in order. Capacities below one use DefaultTail.
func (r *Ring) SetCapacity(n int) {
	if n < 1 {
		n = DefaultTail
	}
	if n == len(r.buf) {
		return
	}
	keep := min(n, r.size)
	skip := r.size - keep
	fresh := make([]string, n)
	for i := 0; i < keep; i++ {
		fresh[i] = r.buf[(r.start+skip+i)%len(r.buf)]
	}
	r.buf = fresh
	r.start = 0
	r.size = keep
}

// Lines returns the stored lines oldest first.
func (r *Ring) Lines() []string {
	out := make([]string, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of stored lines.
func (r *Ring) Len() int { return r.size }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Total counts every Push since the ring was created or last reset.
func (r *Ring) Total() uint64 { return r.total }

// Reset empties the ring and resizes it to capacity.
func (r *Ring) Reset(capacity int) {
	if capacity < 1 {
		capacity = DefaultTail
	}
	r.buf = make([]string, capacity)
	r.start = 0
	r.size = 0
	r.total = 0
}
