// internal/engine/replay.go
package engine

import "github.com/ColonelBlimp/whistlecode/internal/tonal"

// Replay feeds a recorded example frame by frame through a fresh session
// and returns the first match, as live detection would have reported it.
func Replay(cat *tonal.Catalog, m tonal.Matcher, capacity int, samples []tonal.Sample) (tonal.MatchResult, bool, error) {
	s, err := tonal.NewSession(cat, m, capacity)
	if err != nil {
		return tonal.MatchResult{}, false, err
	}
	for _, smp := range samples {
		if res, ok := s.Push(smp); ok {
			return res, true, nil
		}
	}
	return tonal.MatchResult{}, false, nil
}
