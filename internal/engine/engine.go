// internal/engine/engine.go
// Package engine drives the tonal detector from either precomputed
// features (push style) or a raw audio stream (pull style).
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ColonelBlimp/whistlecode/internal/audio"
	"github.com/ColonelBlimp/whistlecode/internal/dsp"
	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

var (
	// ErrSessionRequired indicates the engine needs a detection session
	ErrSessionRequired = errors.New("detection session is required")
	// ErrAudioPathRequired indicates Run needs an analyzer, extractor and framer
	ErrAudioPathRequired = errors.New("analyzer, extractor and framer are required for audio input")
)

// FeatureCallback is called for every analysed frame.
// Must be non-blocking and fast.
type FeatureCallback func(frame int, feature dsp.Feature)

// MatchCallback is called when a reference signal completes.
type MatchCallback func(frame int, result tonal.MatchResult)

// Config wires the engine's collaborators. Only Session is required for push-style use.
type Config struct {
	Session   *tonal.Session
	Analyzer  *dsp.Analyzer
	Extractor *dsp.Extractor
	Framer    *audio.Framer
	Logger    *slog.Logger
}

// Engine runs one detection session. It is not safe for concurrent use,
// except for the callback setters.
type Engine struct {
	session   *tonal.Session
	analyzer  *dsp.Analyzer
	extractor *dsp.Extractor
	framer    *audio.Framer
	logger    *slog.Logger

	frame int

	featureCb atomic.Pointer[FeatureCallback]
	matchCb   atomic.Pointer[MatchCallback]
}

// New creates an engine from its collaborators.
func New(cfg Config) (*Engine, error) {
	if cfg.Session == nil {
		return nil, ErrSessionRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		session:   cfg.Session,
		analyzer:  cfg.Analyzer,
		extractor: cfg.Extractor,
		framer:    cfg.Framer,
		logger:    logger,
	}, nil
}

// SetFeatureCallback sets the per-frame callback
func (e *Engine) SetFeatureCallback(cb FeatureCallback) {
	if cb == nil {
		e.featureCb.Store(nil)
		return
	}
	e.featureCb.Store(&cb)
}

// SetMatchCallback sets the match callback
func (e *Engine) SetMatchCallback(cb MatchCallback) {
	if cb == nil {
		e.matchCb.Store(nil)
		return
	}
	e.matchCb.Store(&cb)
}

// HandleFeature feeds one precomputed feature into the session.
func (e *Engine) HandleFeature(f dsp.Feature) (tonal.MatchResult, bool) {
	frame := e.frame
	e.frame++

	if f.ToneActive {
		e.logger.Debug("tone", "frame", frame, "hz", f.FrequencyHz)
	}
	if cb := e.featureCb.Load(); cb != nil {
		(*cb)(frame, f)
	}

	res, ok := e.session.Push(tonal.Sample{ToneActive: f.ToneActive, FrequencyHz: f.FrequencyHz})
	if !ok {
		return tonal.MatchResult{}, false
	}

	e.logger.Info("found signal", "signal", res.SignalID, "frame", frame)
	if cb := e.matchCb.Load(); cb != nil {
		(*cb)(frame, res)
	}
	return res, true
}

// HandleSpectrum extracts a feature from one spectrum and feeds it into the session.
func (e *Engine) HandleSpectrum(frequencies, magnitudes []float64) (tonal.MatchResult, bool, error) {
	if e.extractor == nil {
		return tonal.MatchResult{}, false, ErrAudioPathRequired
	}
	f, err := e.extractor.Extract(frequencies, magnitudes)
	if err != nil {
		return tonal.MatchResult{}, false, fmt.Errorf("extract features: %w", err)
	}
	res, ok := e.HandleFeature(f)
	return res, ok, nil
}

// HandleFrame analyses one audio frame and feeds the result into the session.
func (e *Engine) HandleFrame(frame []float32) (tonal.MatchResult, bool, error) {
	if e.analyzer == nil {
		return tonal.MatchResult{}, false, ErrAudioPathRequired
	}
	sp, err := e.analyzer.Analyze(frame)
	if err != nil {
		return tonal.MatchResult{}, false, fmt.Errorf("analyze frame: %w", err)
	}
	return e.HandleSpectrum(sp.Frequencies, sp.Magnitudes)
}

// Run consumes audio chunks until chunks is closed or ctx is cancelled.
// It returns nil when the stream ends and ctx.Err() on cancellation.
func (e *Engine) Run(ctx context.Context, chunks <-chan []float32) error {
	if e.analyzer == nil || e.extractor == nil || e.framer == nil {
		return ErrAudioPathRequired
	}

	var frameErr error
	emit := func(frame []float32) {
		if frameErr != nil {
			return
		}
		_, _, frameErr = e.HandleFrame(frame)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				e.logger.Debug("audio stream ended", "frames", e.frame, "matches", e.session.Matches())
				return nil
			}
			e.framer.Write(chunk, emit)
			if frameErr != nil {
				return frameErr
			}
		}
	}
}

// Reset aborts any partially accumulated sequence
func (e *Engine) Reset() {
	e.session.Reset()
	if e.framer != nil {
		e.framer.Reset()
	}
}

// Frames returns the number of frames processed
func (e *Engine) Frames() int {
	return e.frame
}

// Session returns the underlying detection session
func (e *Engine) Session() *tonal.Session {
	return e.session
}
