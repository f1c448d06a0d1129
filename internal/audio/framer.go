// internal/audio/framer.go
package audio

import "errors"

var (
	// ErrInvalidFrameSize indicates frame size must be positive
	ErrInvalidFrameSize = errors.New("frame size must be positive")
	// ErrInvalidOverlap indicates overlap percentage must be 0-99
	ErrInvalidOverlap = errors.New("overlap percentage must be between 0 and 99")
)

// Framer slices a continuous sample stream into fixed-size frames.
// With overlap, consecutive frames share overlapPct percent of their samples.
type Framer struct {
	size    int
	hopSize int // samples to advance between frames
	buf     []float32
}

// NewFramer creates a framer producing frames of size samples.
func NewFramer(size, overlapPct int) (*Framer, error) {
	if size <= 0 {
		return nil, ErrInvalidFrameSize
	}
	if overlapPct < 0 || overlapPct >= 100 {
		return nil, ErrInvalidOverlap
	}
	overlap := (size * overlapPct) / 100
	return &Framer{
		size:    size,
		hopSize: size - overlap,
		buf:     make([]float32, 0, 2*size),
	}, nil
}

// Write appends samples and calls emit for every complete frame.
// The frame passed to emit is a fresh slice the callee may keep.
func (f *Framer) Write(samples []float32, emit func(frame []float32)) {
	f.buf = append(f.buf, samples...)

	for len(f.buf) >= f.size {
		frame := make([]float32, f.size)
		copy(frame, f.buf[:f.size])
		emit(frame)

		// Slide the buffer by hopSize
		n := copy(f.buf, f.buf[f.hopSize:])
		f.buf = f.buf[:n]
	}
}

// Pending returns the number of buffered samples not yet emitted
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Reset drops any buffered samples
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}

// Size returns the frame size in samples
func (f *Framer) Size() int {
	return f.size
}

// Hop returns the number of samples between the starts of consecutive frames
func (f *Framer) Hop() int {
	return f.hopSize
}
