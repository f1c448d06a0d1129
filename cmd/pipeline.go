// cmd/pipeline.go
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ColonelBlimp/whistlecode/internal/audio"
	"github.com/ColonelBlimp/whistlecode/internal/config"
	"github.com/ColonelBlimp/whistlecode/internal/dsp"
	"github.com/ColonelBlimp/whistlecode/internal/engine"
	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

// pipeline is a configured engine plus the timing needed to report matches
type pipeline struct {
	engine     *engine.Engine
	sampleRate float64
	hop        int
}

// newPipeline wires catalog, session, analyzer, extractor and framer.
// sampleRate overrides the configured rate when positive, for file input.
func newPipeline(s *config.Settings, logger *slog.Logger, sampleRate float64) (*pipeline, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	session, err := tonal.NewSession(cat, s.Matcher(logger), s.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ac := s.AnalyzerConfig()
	if sampleRate > 0 {
		ac.SampleRate = sampleRate
	}
	analyzer, err := dsp.NewAnalyzer(ac)
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}
	extractor, err := dsp.NewExtractor(s.ExtractorConfig())
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}
	framer, err := audio.NewFramer(s.FrameSize, s.OverlapPct)
	if err != nil {
		return nil, fmt.Errorf("create framer: %w", err)
	}

	eng, err := engine.New(engine.Config{
		Session:   session,
		Analyzer:  analyzer,
		Extractor: extractor,
		Framer:    framer,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("pipeline ready",
		"signals", cat.Len(),
		"window", s.WindowSize,
		"frame_size", s.FrameSize,
		"resolution_hz", analyzer.Resolution())

	return &pipeline{engine: eng, sampleRate: ac.SampleRate, hop: framer.Hop()}, nil
}

// offset returns the stream time, in seconds, where frame starts
func (p *pipeline) offset(frame int) float64 {
	return float64(frame*p.hop) / p.sampleRate
}
