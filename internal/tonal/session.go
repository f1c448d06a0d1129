// internal/tonal/session.go
package tonal

import (
	"errors"
	"slices"
)

// ErrCatalogRequired indicates a session needs a catalog
var ErrCatalogRequired = errors.New("catalog is required")

// Session runs detection over one rolling window.
// A Session is owned by a single caller. Several sessions may share one Catalog.
type Session struct {
	catalog *Catalog
	matcher Matcher
	window  *Window
	matches int
}

// NewSession creates a session with an empty window of the given capacity.
func NewSession(cat *Catalog, m Matcher, capacity int) (*Session, error) {
	if cat == nil {
		return nil, ErrCatalogRequired
	}
	w, err := NewWindow(capacity)
	if err != nil {
		return nil, err
	}
	return &Session{catalog: cat, matcher: m, window: w}, nil
}

// Push adds one frame to the window and scans it.
// On a match the window is reset before returning, so the same notes cannot
// match again on the next frame. No other debouncing is applied.
func (s *Session) Push(sample Sample) (MatchResult, bool) {
	s.window.Push(sample)

	res, ok := s.matcher.Scan(slices.Collect(s.window.Tones()), s.catalog)
	if !ok {
		return MatchResult{}, false
	}
	s.window.Reset()
	s.matches++
	return res, true
}

// Reset discards any partially accumulated sequence.
func (s *Session) Reset() {
	s.window.Reset()
}

// Samples returns a chronological copy of the window contents
func (s *Session) Samples() []Sample {
	return s.window.Samples()
}

// Matches returns how many matches this session has emitted
func (s *Session) Matches() int {
	return s.matches
}

// Catalog returns the catalog the session scans against
func (s *Session) Catalog() *Catalog {
	return s.catalog
}
