package gesture

import "time"

// Window size bounds for position histories.
const (
	MinWindow = 8
	MaxWindow = 12
)

// Sample is one normalized palm position.
type Sample struct {
	X  float64
	Y  float64
	At time.Time
}

// History is a bounded FIFO of recent samples. Once full, each push
// evicts the oldest entry.
type History struct {
	buf   []Sample
	start int
	size  int
}

// NewHistory creates an empty History holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

// Push appends a sample. Samples older than the newest entry are
// rejected so the buffer stays in timestamp order.
func (h *History) Push(s Sample) bool {
	if h.size > 0 && s.At.Before(h.Newest().At) {
		return false
	}
	if h.size == len(h.buf) {
		h.buf[h.start] = s
		h.start = (h.start + 1) % len(h.buf)
		return true
	}
	h.buf[(h.start+h.size)%len(h.buf)] = s
	h.size++
	return true
}

// Len returns the number of buffered samples.
func (h *History) Len() int { return h.size }

// Cap returns the fixed capacity.
func (h *History) Cap() int { return len(h.buf) }

// Full reports whether the window is complete.
func (h *History) Full() bool { return h.size == len(h.buf) }

// Oldest returns the oldest sample. It must not be called on an empty
// history.
func (h *History) Oldest() Sample { return h.buf[h.start] }

// Newest returns the most recent sample. It must not be called on an
// empty history.
func (h *History) Newest() Sample {
	return h.buf[(h.start+h.size-1)%len(h.buf)]
}

// Samples returns a copy of the buffer, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, h.size)
	for i := range out {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Clear empties the history.
func (h *History) Clear() {
	h.start = 0
	h.size = 0
}
