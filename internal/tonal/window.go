// internal/tonal/window.go
// Package tonal implements recognition of short whistled pitch sequences
// against a catalog of reference signals.
package tonal

import (
	"errors"
	"iter"
)

// ErrInvalidCapacity indicates window capacity must be at least 1
var ErrInvalidCapacity = errors.New("window capacity must be at least 1")

// Sample is one analysed frame: whether a tone was present and its dominant frequency.
// FrequencyHz of 0 (or NaN) means no measurement.
type Sample struct {
	ToneActive  bool
	FrequencyHz float64
}

// Window is a fixed-capacity FIFO of samples backed by a ring buffer.
// It is not safe for concurrent use; each session owns its own window.
type Window struct {
	buf   []Sample
	head  int // index of the oldest sample
	count int
}

// NewWindow creates an empty window holding at most capacity samples.
func NewWindow(capacity int) (*Window, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Window{buf: make([]Sample, capacity)}, nil
}

// Push appends a sample, evicting the oldest one when the window is full.
func (w *Window) Push(s Sample) {
	if w.count == len(w.buf) {
		w.buf[w.head] = s
		w.head = (w.head + 1) % len(w.buf)
		return
	}
	w.buf[(w.head+w.count)%len(w.buf)] = s
	w.count++
}

// Reset fills every slot with the inactive sentinel sample.
func (w *Window) Reset() {
	clear(w.buf)
	w.head = 0
	w.count = len(w.buf)
}

// Len returns the number of samples currently held
func (w *Window) Len() int {
	return w.count
}

// Cap returns the window capacity
func (w *Window) Cap() int {
	return len(w.buf)
}

// all yields the samples oldest first.
func (w *Window) all() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for i := 0; i < w.count; i++ {
			if !yield(w.buf[(w.head+i)%len(w.buf)]) {
				return
			}
		}
	}
}

// Samples returns a chronological copy of the window contents.
func (w *Window) Samples() []Sample {
	out := make([]Sample, 0, w.count)
	for s := range w.all() {
		out = append(out, s)
	}
	return out
}

// Tones yields the active samples in temporal order.
// The sequence reads the current contents each time it is ranged over.
func (w *Window) Tones() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for s := range w.all() {
			if s.ToneActive && !yield(s) {
				return
			}
		}
	}
}
