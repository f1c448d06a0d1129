// internal/dsp/spectrum.go
// Package dsp turns audio frames into spectra and spectra into tone features.
package dsp

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

var (
	// ErrInvalidFrameSize indicates frame size must be at least 2 samples
	ErrInvalidFrameSize = errors.New("frame size must be at least 2")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidAmplitudeScale indicates amplitude scale must be positive
	ErrInvalidAmplitudeScale = errors.New("amplitude scale must be positive")
	// ErrFrameSize indicates a frame does not have the configured length
	ErrFrameSize = errors.New("frame length does not match frame size")
)

// AnalyzerConfig holds configuration for spectrum analysis.
type AnalyzerConfig struct {
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate float64
	// FrameSize is the number of samples per FFT frame (from config: frame_size)
	FrameSize int
	// AmplitudeScale multiplies normalized samples before the FFT (from config: amplitude_scale).
	// 32768 reproduces int16 magnitudes, which the default extractor thresholds expect.
	AmplitudeScale float64
}

// Spectrum is a one-sided magnitude spectrum with aligned, ascending frequencies.
type Spectrum struct {
	Frequencies []float64
	Magnitudes  []float64
}

// Analyzer computes Blackman-windowed magnitude spectra of fixed-size frames.
// Not safe for concurrent use; the scratch buffer is reused between frames.
type Analyzer struct {
	config      AnalyzerConfig
	window      []float64
	frequencies []float64
	scratch     []float64
}

// NewAnalyzer creates a spectrum analyzer with the given configuration.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if cfg.FrameSize < 2 {
		return nil, ErrInvalidFrameSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.AmplitudeScale <= 0 {
		return nil, ErrInvalidAmplitudeScale
	}

	bins := cfg.FrameSize/2 + 1
	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = float64(k) * cfg.SampleRate / float64(cfg.FrameSize)
	}

	return &Analyzer{
		config:      cfg,
		window:      window.Blackman(cfg.FrameSize),
		frequencies: freqs,
		scratch:     make([]float64, cfg.FrameSize),
	}, nil
}

// Analyze returns the spectrum of one frame of normalized samples (-1.0 to 1.0).
// The returned Frequencies slice is shared between calls and must not be modified.
func (a *Analyzer) Analyze(frame []float32) (Spectrum, error) {
	if len(frame) != a.config.FrameSize {
		return Spectrum{}, ErrFrameSize
	}

	for i, v := range frame {
		a.scratch[i] = float64(v) * a.config.AmplitudeScale * a.window[i]
	}
	coeffs := fft.FFTReal(a.scratch)

	mags := make([]float64, len(a.frequencies))
	for k := range mags {
		mags[k] = cmplx.Abs(coeffs[k])
	}
	return Spectrum{Frequencies: a.frequencies, Magnitudes: mags}, nil
}

// Bins returns the number of frequency bins per spectrum
func (a *Analyzer) Bins() int {
	return len(a.frequencies)
}

// Resolution returns the bin spacing in Hz
func (a *Analyzer) Resolution() float64 {
	return a.config.SampleRate / float64(a.config.FrameSize)
}

// Config returns the current configuration
func (a *Analyzer) Config() AnalyzerConfig {
	return a.config
}
