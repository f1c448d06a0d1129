package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes interleaved 16-bit PCM into a temporary file
func writeTestWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func collect(t *testing.T, r *WAVReader, chunk int) []float32 {
	t.Helper()
	out := make(chan []float32)
	errCh := make(chan error, 1)
	go func() { errCh <- r.Stream(context.Background(), chunk, out) }()

	var all []float32
	for c := range out {
		all = append(all, c...)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	return all
}

func TestOpenWAV_Mono(t *testing.T) {
	data := make([]int, 1000)
	for i := range data {
		data[i] = 16384
	}
	path := writeTestWAV(t, 44100, 1, data)

	r, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	info := r.Info()
	if info.SampleRate != 44100 || info.Channels != 1 || info.BitDepth != 16 {
		t.Errorf("Info() = %+v", info)
	}

	samples := collect(t, r, 256)
	if len(samples) != 1000 {
		t.Fatalf("streamed %d samples, want 1000", len(samples))
	}
	for i, v := range samples {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestOpenWAV_StereoDownmix(t *testing.T) {
	data := make([]int, 0, 200)
	for i := 0; i < 100; i++ {
		data = append(data, 16384, -16384)
	}
	path := writeTestWAV(t, 22050, 2, data)

	r, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	samples := collect(t, r, 64)
	if len(samples) != 100 {
		t.Fatalf("streamed %d mono samples, want 100", len(samples))
	}
	for i, v := range samples {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestOpenWAV_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("this is not a riff file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenWAV(path); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("OpenWAV(bogus) error = %v, want ErrInvalidWAV", err)
	}
	if _, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("OpenWAV(missing) error = nil")
	}
}

func TestWAVReader_StreamInvalidChunk(t *testing.T) {
	r, err := OpenWAV(writeTestWAV(t, 8000, 1, make([]int, 10)))
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	out := make(chan []float32, 1)
	if err := r.Stream(context.Background(), 0, out); err != ErrInvalidChunkSize {
		t.Errorf("Stream(chunk 0) error = %v, want ErrInvalidChunkSize", err)
	}
	if _, ok := <-out; ok {
		t.Error("out not closed after Stream returned")
	}
}

func TestWAVReader_StreamCancelled(t *testing.T) {
	r, err := OpenWAV(writeTestWAV(t, 8000, 1, make([]int, 4000)))
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Unbuffered and never read, so the first send blocks until cancellation is seen
	if err := r.Stream(ctx, 100, make(chan []float32)); !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() error = %v, want context.Canceled", err)
	}
}
