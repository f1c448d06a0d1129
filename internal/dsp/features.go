// internal/dsp/features.go
package dsp

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrLengthMismatch indicates frequencies and magnitudes differ in length
	ErrLengthMismatch = errors.New("frequencies and magnitudes must have equal length")
	// ErrTooFewBins indicates the spectrum is too short for the configured rank offset
	ErrTooFewBins = errors.New("spectrum has too few bins for rank offset")
	// ErrInvalidRankOffset indicates rank offset must be non-negative
	ErrInvalidRankOffset = errors.New("rank offset must be non-negative")
	// ErrInvalidExclusionRadius indicates exclusion radius must be non-negative
	ErrInvalidExclusionRadius = errors.New("exclusion radius must be non-negative")
	// ErrInvalidMargin indicates margin must be non-negative
	ErrInvalidMargin = errors.New("margin must be non-negative")
)

// Feature is the per-frame result of tone detection.
// FrequencyHz is 0 whenever ToneActive is false.
type Feature struct {
	ToneActive  bool
	FrequencyHz float64
}

// ExtractorConfig holds the thresholds for whistle detection.
// All values should come from the application config file.
type ExtractorConfig struct {
	// MinFrequencyHz rejects peaks below this frequency (from config: min_frequency)
	MinFrequencyHz float64
	// MinLog10Magnitude rejects peaks weaker than this, in log10 units (from config: min_log10_magnitude)
	MinLog10Magnitude float64
	// ExclusionRadiusHz is the band around the peak ignored when estimating the noise floor (from config: exclusion_radius)
	ExclusionRadiusHz float64
	// RankOffset selects the noise floor reference: 0 is the strongest non-peak bin (from config: rank_offset)
	RankOffset int
	// MarginDB is how far the peak must rise above the reference, in log10 units (from config: margin_db)
	MarginDB float64
}

// DefaultExtractorConfig returns the thresholds tuned for whistling into a
// 2048-point spectrum of int16-scaled audio.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MinFrequencyHz:    550,
		MinLog10Magnitude: 4.5,
		ExclusionRadiusHz: 5,
		RankOffset:        5,
		MarginDB:          0.5,
	}
}

// Extractor decides whether a spectrum contains a single dominant tone.
// It holds no state between frames and is safe for concurrent use.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates a feature extractor with the given configuration.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	if cfg.RankOffset < 0 {
		return nil, ErrInvalidRankOffset
	}
	if cfg.ExclusionRadiusHz < 0 {
		return nil, ErrInvalidExclusionRadius
	}
	if cfg.MarginDB < 0 {
		return nil, ErrInvalidMargin
	}
	return &Extractor{config: cfg}, nil
}

// Extract returns whether a tone is present and its frequency.
// frequencies must be ascending and aligned with magnitudes. Neither slice is modified.
func (e *Extractor) Extract(frequencies, magnitudes []float64) (Feature, error) {
	if len(frequencies) != len(magnitudes) {
		return Feature{}, ErrLengthMismatch
	}
	if len(magnitudes) < e.config.RankOffset+2 {
		return Feature{}, ErrTooFewBins
	}

	peakIdx := floats.MaxIdx(magnitudes)
	peakFreq := frequencies[peakIdx]
	peakLog := log10Abs(magnitudes[peakIdx])

	if peakLog < e.config.MinLog10Magnitude || peakFreq < e.config.MinFrequencyHz {
		return Feature{}, nil
	}

	// Rank the bins outside the peak band, strongest first, ties by index
	candidates := make([]int, 0, len(magnitudes))
	for i, f := range frequencies {
		if math.Abs(f-peakFreq) > e.config.ExclusionRadiusHz {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) <= e.config.RankOffset {
		return Feature{}, nil
	}
	slices.SortStableFunc(candidates, func(a, b int) int {
		ma, mb := math.Abs(magnitudes[a]), math.Abs(magnitudes[b])
		switch {
		case ma > mb:
			return -1
		case ma < mb:
			return 1
		default:
			return 0
		}
	})

	secondaryLog := log10Abs(magnitudes[candidates[e.config.RankOffset]])
	if peakLog-secondaryLog >= e.config.MarginDB {
		return Feature{ToneActive: true, FrequencyHz: peakFreq}, nil
	}
	return Feature{}, nil
}

// Config returns the current configuration
func (e *Extractor) Config() ExtractorConfig {
	return e.config
}

// log10Abs returns log10(|v|), with log10(0) = -Inf.
func log10Abs(v float64) float64 {
	return math.Log10(math.Abs(v))
}
