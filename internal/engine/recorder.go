// internal/engine/recorder.go
package engine

import (
	"errors"

	"github.com/ColonelBlimp/whistlecode/internal/dsp"
	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

// DefaultHistoryLength is the number of frames in one recorded example
const DefaultHistoryLength = 30

// ErrInvalidHistoryLength indicates history length must be at least 1
var ErrInvalidHistoryLength = errors.New("history length must be at least 1")

// Recorder captures fixed-length training examples from a feature stream.
// An example is ready once the history is full and its oldest frame holds a
// tone, i.e. the whole window is covered from the start of a whistle.
// While an example is ready further frames are ignored.
type Recorder struct {
	window *tonal.Window
	ready  bool
}

// NewRecorder creates a recorder keeping length frames per example.
func NewRecorder(length int) (*Recorder, error) {
	if length < 1 {
		return nil, ErrInvalidHistoryLength
	}
	w, err := tonal.NewWindow(length)
	if err != nil {
		return nil, err
	}
	return &Recorder{window: w}, nil
}

// Push records one frame and reports whether an example is ready.
func (r *Recorder) Push(f dsp.Feature) bool {
	if r.ready {
		return true
	}
	r.window.Push(tonal.Sample{ToneActive: f.ToneActive, FrequencyHz: f.FrequencyHz})

	if r.window.Len() == r.window.Cap() {
		if first := r.window.Samples()[0]; first.ToneActive {
			r.ready = true
		}
	}
	return r.ready
}

// Ready reports whether a complete example is waiting
func (r *Recorder) Ready() bool {
	return r.ready
}

// Take returns the ready example and starts a new recording.
// It returns nil when no example is ready.
func (r *Recorder) Take() []tonal.Sample {
	if !r.ready {
		return nil
	}
	samples := r.window.Samples()
	r.Discard()
	return samples
}

// Discard drops the current recording and resumes.
func (r *Recorder) Discard() {
	w, _ := tonal.NewWindow(r.window.Cap())
	r.window = w
	r.ready = false
}

// Len returns the number of frames recorded so far
func (r *Recorder) Len() int {
	return r.window.Len()
}
