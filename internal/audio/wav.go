// internal/audio/wav.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrInvalidWAV indicates the file is not a readable PCM WAV file
	ErrInvalidWAV = errors.New("not a valid WAV file")
	// ErrInvalidChunkSize indicates chunk size must be positive
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
)

// WAVInfo describes the format of an opened WAV file
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// WAVReader streams a WAV file as normalized mono samples
type WAVReader struct {
	file    *os.File
	decoder *wav.Decoder
	info    WAVInfo
}

// OpenWAV opens and validates a WAV file
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}

	return &WAVReader{
		file:    f,
		decoder: d,
		info: WAVInfo{
			SampleRate: int(d.SampleRate),
			Channels:   int(d.NumChans),
			BitDepth:   int(d.BitDepth),
		},
	}, nil
}

// Info returns the file's format
func (r *WAVReader) Info() WAVInfo {
	return r.info
}

// Stream sends mono chunks of about chunk samples to out until the file is
// exhausted or ctx is cancelled. out is closed when Stream returns.
func (r *WAVReader) Stream(ctx context.Context, chunk int, out chan<- []float32) error {
	defer close(out)

	if chunk <= 0 {
		return ErrInvalidChunkSize
	}

	channels := max(r.info.Channels, 1)
	scale := float32(int64(1) << (max(r.info.BitDepth, 1) - 1))
	// 8-bit PCM is unsigned
	var bias int
	if r.info.BitDepth == 8 {
		bias = 128
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: r.info.SampleRate},
		Data:           make([]int, chunk*channels),
		SourceBitDepth: r.info.BitDepth,
	}

	for {
		n, err := r.decoder.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("read pcm: %w", err)
		}
		if n == 0 {
			return nil
		}

		interleaved := make([]float32, n)
		for i, v := range buf.Data[:n] {
			interleaved[i] = float32(v-bias) / scale
		}

		select {
		case out <- downmix(interleaved, channels):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the underlying file
func (r *WAVReader) Close() error {
	return r.file.Close()
}
