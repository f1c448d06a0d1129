// internal/tonal/matcher.go
package tonal

import (
	"log/slog"
	"math"
)

// Matching constants in log2-octave units
const (
	// DefaultMatchTolerance is how close a recorded offset must be to a note to satisfy it
	DefaultMatchTolerance = 0.08
	// DefaultOvershootLimit is how far past the targeted note a recording may move before the candidate is dropped
	DefaultOvershootLimit = 0.40
	// minTones is the number of tone samples that must be exceeded before alignment is attempted
	minTones = 2
)

// MatchResult describes a completed reference signal.
type MatchResult struct {
	// SignalID is the catalog id of the matched signal
	SignalID int
	// AlignedOffsets holds the recorded offsets that satisfied each note, in note order
	AlignedOffsets []float64
	// Offsets holds every normalized offset of the scanned tone subsequence
	Offsets []float64
	// Consumed is the number of recorded samples read up to and including the completing one
	Consumed int
}

// Matcher aligns a tone subsequence against catalog signals with a greedy
// two-cursor scan. The reference cursor never skips a note; the record
// cursor may skip any number of frames between matched notes. There is no
// backtracking, so a noisy frame that happens to satisfy a note early can
// cause a miss that an optimal alignment would have found.
type Matcher struct {
	Tolerance      float64
	OvershootLimit float64
	// Logger receives debug output for abandoned candidates. Optional.
	Logger *slog.Logger
}

// DefaultMatcher returns a matcher with the standard thresholds.
func DefaultMatcher() Matcher {
	return Matcher{
		Tolerance:      DefaultMatchTolerance,
		OvershootLimit: DefaultOvershootLimit,
	}
}

// Scan tries each catalog signal in order and returns the first full match.
func (m Matcher) Scan(tones []Sample, cat *Catalog) (MatchResult, bool) {
	if len(tones) <= minTones || cat == nil {
		return MatchResult{}, false
	}

	offsets := normalize(tones)
	for _, sig := range cat.signals {
		if res, ok := m.align(sig, offsets); ok {
			return res, true
		}
	}
	return MatchResult{}, false
}

func (m Matcher) align(sig Signal, offsets []float64) (MatchResult, bool) {
	notes := sig.Notes
	aligned := make([]float64, 0, len(notes))
	signalIdx := 0

	for recordIdx, w := range offsets {
		if signalIdx > 0 {
			if over := overshoot(notes[signalIdx-1], notes[signalIdx], w); over > m.OvershootLimit {
				if m.Logger != nil {
					m.Logger.Debug("overshoot, abandoning candidate",
						"signal", sig.ID, "note", signalIdx, "overshoot", over)
				}
				return MatchResult{}, false
			}
		}

		if math.Abs(w-notes[signalIdx]) < m.Tolerance {
			aligned = append(aligned, w)
			signalIdx++
			if signalIdx == len(notes) {
				return MatchResult{
					SignalID:       sig.ID,
					AlignedOffsets: aligned,
					Offsets:        offsets,
					Consumed:       recordIdx + 1,
				}, true
			}
		}
	}
	return MatchResult{}, false
}

// overshoot measures how far w has moved past target in the direction of
// the step prev→target. Flat steps never overshoot.
func overshoot(prev, target, w float64) float64 {
	switch {
	case prev < target:
		return w - target
	case prev > target:
		return target - w
	default:
		return 0
	}
}

// normalize re-bases the tone frequencies to the first one in log2 units.
// Missing measurements become NaN so they fail every comparison.
func normalize(tones []Sample) []float64 {
	logs := make([]float64, len(tones))
	for i, s := range tones {
		if s.FrequencyHz == 0 || math.IsNaN(s.FrequencyHz) {
			logs[i] = math.NaN()
			continue
		}
		logs[i] = math.Log2(s.FrequencyHz)
	}

	base := logs[0]
	for i := range logs {
		logs[i] -= base
	}
	return logs
}
