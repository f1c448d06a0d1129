package tonal

import (
	"sync"
	"testing"
)

const sessionTestCapacity = 30

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(mustCatalog(t, DefaultSignals()...), DefaultMatcher(), sessionTestCapacity)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

// feed pushes samples and returns every match emitted along the way
func feed(s *Session, samples []Sample) []MatchResult {
	var out []MatchResult
	for _, smp := range samples {
		if res, ok := s.Push(smp); ok {
			out = append(out, res)
		}
	}
	return out
}

// occurrence holds every note but the last, which arrives on a single frame
// so nothing of the signal is left in the window after the match reset
func occurrence(n int, freqs []float64) []Sample {
	return append(held(n, freqs[:len(freqs)-1]), tones(freqs[len(freqs)-1])...)
}

func silence(n int) []Sample {
	return make([]Sample, n)
}

func TestNewSession_Errors(t *testing.T) {
	if _, err := NewSession(nil, DefaultMatcher(), 30); err != ErrCatalogRequired {
		t.Errorf("NewSession(nil catalog) error = %v, want ErrCatalogRequired", err)
	}
	cat := mustCatalog(t, DefaultSignals()...)
	if _, err := NewSession(cat, DefaultMatcher(), 0); err != ErrInvalidCapacity {
		t.Errorf("NewSession(capacity 0) error = %v, want ErrInvalidCapacity", err)
	}
}

func TestSession_MatchResetsWindow(t *testing.T) {
	s := newTestSession(t)

	input := append(silence(5), held(2, DefaultSignals()[0].Frequencies)...)
	matches := feed(s, input)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].SignalID != 0 {
		t.Errorf("SignalID = %d, want 0", matches[0].SignalID)
	}

	// The final hold frame arrived after the reset
	samples := s.Samples()
	if len(samples) != sessionTestCapacity {
		t.Fatalf("len(Samples()) = %d, want %d", len(samples), sessionTestCapacity)
	}
	for i, smp := range samples[:sessionTestCapacity-1] {
		if smp.ToneActive || smp.FrequencyHz != 0 {
			t.Errorf("sample %d = %+v, want sentinel", i, smp)
		}
	}
}

func TestSession_NoRetriggerOnNextFrame(t *testing.T) {
	s := newTestSession(t)
	sig := DefaultSignals()[0].Frequencies

	if got := feed(s, tones(sig...)); len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	// Holding the last note must not complete the signal again
	if got := feed(s, tones(sig[len(sig)-1], sig[len(sig)-1], sig[len(sig)-1])); len(got) != 0 {
		t.Errorf("held terminal note retriggered: %+v", got)
	}
}

func TestSession_SecondOccurrenceMatchesAgain(t *testing.T) {
	s := newTestSession(t)
	sig := DefaultSignals()[2].Frequencies

	input := append(occurrence(2, sig), silence(3)...)
	input = append(input, occurrence(3, sig)...)

	matches := feed(s, input)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	for i, m := range matches {
		if m.SignalID != 2 {
			t.Errorf("match %d SignalID = %d, want 2", i, m.SignalID)
		}
	}
	if s.Matches() != 2 {
		t.Errorf("Matches() = %d, want 2", s.Matches())
	}
}

func TestSession_ResetAbortsPartialSequence(t *testing.T) {
	s := newTestSession(t)
	sig := DefaultSignals()[0].Frequencies

	feed(s, tones(sig[:3]...))
	s.Reset()

	if got := feed(s, tones(sig[3])); len(got) != 0 {
		t.Errorf("completed a sequence across Reset: %+v", got)
	}
}

func TestSession_SequenceLongerThanWindowIsLost(t *testing.T) {
	s, err := NewSession(mustCatalog(t, DefaultSignals()...), DefaultMatcher(), 4)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	// The first note falls out of the window before the sequence completes
	input := held(2, DefaultSignals()[0].Frequencies)
	if got := feed(s, input); len(got) != 0 {
		t.Errorf("matched across evicted frames: %+v", got)
	}
}

func TestSession_IndependentSessionsShareCatalog(t *testing.T) {
	cat := mustCatalog(t, DefaultSignals()...)
	raw := DefaultSignals()

	var wg sync.WaitGroup
	results := make([][]MatchResult, len(raw))
	for i, r := range raw {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := NewSession(cat, DefaultMatcher(), sessionTestCapacity)
			if err != nil {
				t.Errorf("NewSession() error = %v", err)
				return
			}
			for n := 0; n < 20; n++ {
				results[i] = append(results[i], feed(s, occurrence(2, r.Frequencies))...)
			}
		}()
	}
	wg.Wait()

	for i, r := range raw {
		if len(results[i]) != 20 {
			t.Errorf("session %d: got %d matches, want 20", i, len(results[i]))
		}
		for _, m := range results[i] {
			if m.SignalID != r.ID {
				t.Errorf("session %d matched %d, want %d", i, m.SignalID, r.ID)
				break
			}
		}
	}
}
