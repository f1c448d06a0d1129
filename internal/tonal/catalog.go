// internal/tonal/catalog.go
package tonal

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// MinNotes is the shortest reference signal the catalog accepts
const MinNotes = 2

var (
	// ErrEmptyCatalog indicates at least one signal is required
	ErrEmptyCatalog = errors.New("catalog must contain at least one signal")
	// ErrTooFewNotes indicates a reference signal is shorter than MinNotes
	ErrTooFewNotes = errors.New("signal must have at least 2 notes")
	// ErrInvalidFrequency indicates a reference frequency is not a positive finite number
	ErrInvalidFrequency = errors.New("signal frequency must be positive and finite")
	// ErrDuplicateSignal indicates two signals share an id
	ErrDuplicateSignal = errors.New("duplicate signal id")
)

// RawSignal is a reference signal as configured: note frequencies in Hz.
type RawSignal struct {
	ID          int       `mapstructure:"id"`
	Frequencies []float64 `mapstructure:"frequencies"`
}

// Signal is a reference signal normalized to its first note.
// Notes are log2-octave offsets, so Notes[0] is always 0.
type Signal struct {
	ID    int
	Notes []float64
}

// Catalog is an ordered, immutable set of reference signals.
// Order is scan priority. A Catalog is safe for concurrent readers.
type Catalog struct {
	signals []Signal
	index   map[int]int
}

// DefaultSignals returns the built-in reference signals.
func DefaultSignals() []RawSignal {
	return []RawSignal{
		{ID: 0, Frequencies: []float64{1318.51, 987.77, 783.99, 1318.51}},
		{ID: 1, Frequencies: []float64{698.46, 880.00, 1046.50, 1396.91, 1760.00, 1567.98, 1396.91, 1174.66, 987.77, 1046.50}},
		{ID: 2, Frequencies: []float64{1318.51, 1174.66, 1046.50, 987.77, 987.77, 1046.50, 987.77, 783.99}},
	}
}

// NewCatalog normalizes the raw signals and validates them.
func NewCatalog(raw []RawSignal) (*Catalog, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		signals: make([]Signal, 0, len(raw)),
		index:   make(map[int]int, len(raw)),
	}
	for _, r := range raw {
		if len(r.Frequencies) < MinNotes {
			return nil, fmt.Errorf("signal %d: %w", r.ID, ErrTooFewNotes)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("signal %d: %w", r.ID, ErrDuplicateSignal)
		}
		for _, f := range r.Frequencies {
			if !(f > 0) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("signal %d: %w (got %v)", r.ID, ErrInvalidFrequency, f)
			}
		}

		base := math.Log2(r.Frequencies[0])
		notes := make([]float64, len(r.Frequencies))
		for i, f := range r.Frequencies {
			notes[i] = math.Log2(f) - base
		}
		notes[0] = 0

		c.index[r.ID] = len(c.signals)
		c.signals = append(c.signals, Signal{ID: r.ID, Notes: notes})
	}
	return c, nil
}

// Len returns the number of signals in the catalog
func (c *Catalog) Len() int {
	return len(c.signals)
}

// Signals returns a copy of the signals in scan order.
func (c *Catalog) Signals() []Signal {
	out := make([]Signal, len(c.signals))
	for i, s := range c.signals {
		out[i] = Signal{ID: s.ID, Notes: slices.Clone(s.Notes)}
	}
	return out
}

// Signal looks up a signal by id.
func (c *Catalog) Signal(id int) (Signal, bool) {
	i, ok := c.index[id]
	if !ok {
		return Signal{}, false
	}
	s := c.signals[i]
	return Signal{ID: s.ID, Notes: slices.Clone(s.Notes)}, true
}
