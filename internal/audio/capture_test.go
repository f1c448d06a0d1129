package audio

import (
	"context"
	"math"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("DefaultConfig().Channels = %d, want 1", cfg.Channels)
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 1024", cfg.BufferSize)
	}
}

func TestNew(t *testing.T) {
	capture := New(Config{DeviceIndex: 2, SampleRate: 48000, Channels: 2, BufferSize: 512})

	if capture.config.DeviceIndex != 2 {
		t.Errorf("capture.config.DeviceIndex = %d, want 2", capture.config.DeviceIndex)
	}
	if cap(capture.Samples) != samplesChanSize {
		t.Errorf("capture.Samples capacity = %d, want %d", cap(capture.Samples), samplesChanSize)
	}
	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
}

func TestCapture_SetCallback(t *testing.T) {
	capture := New(DefaultConfig())

	capture.SetCallback(func(samples []float32) {})
	if capture.callbackPtr.Load() == nil {
		t.Error("SetCallback() did not set callback")
	}

	capture.SetCallback(nil)
	if capture.callbackPtr.Load() != nil {
		t.Error("SetCallback(nil) should clear callback")
	}
}

func TestCapture_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	if _, err := capture.ListDevices(); err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
	if err := capture.Start(context.Background()); err != ErrNotInitialized {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(DefaultConfig())
	capture.running.Store(true)

	if err := capture.Start(context.Background()); err != ErrAlreadyRunning {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := New(DefaultConfig())
	if err := capture.Stop(); err != ErrNotRunning {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestCapture_CloseClosesSamplesOnce(t *testing.T) {
	capture := New(DefaultConfig())

	if err := capture.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-capture.Samples; ok {
		t.Error("Samples channel still open after Close()")
	}
	// A second Close must not panic on the closed channel
	if err := capture.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestBytesToFloat32(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		want []float32
	}{
		{"empty", []byte{}, []float32{}},
		{"single", []byte{0x00, 0x00, 0x80, 0x3F}, []float32{1.0}},
		{"multiple", []byte{
			0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x80, 0x3F,
			0x00, 0x00, 0x80, 0xBF,
		}, []float32{0.0, 1.0, -1.0}},
		{"partial sample dropped", []byte{0x00, 0x00, 0x80}, []float32{}},
		{"trailing bytes dropped", []byte{0x00, 0x00, 0x00, 0x3F, 0xFF}, []float32{0.5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := bytesToFloat32(tc.data)
			if len(got) != len(tc.want) {
				t.Fatalf("bytesToFloat32() length = %d, want %d", len(got), len(tc.want))
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("bytesToFloat32()[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBytesToFloat32_RoundTrip(t *testing.T) {
	values := []float32{0.25, -0.75, 1e-6, float32(math.Pi) / 4}
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		b := math.Float32bits(v)
		data = append(data, byte(b), byte(b>>8), byte(b>>16), byte(b>>24))
	}

	got := bytesToFloat32(data)
	for i, v := range values {
		if got[i] != v {
			t.Errorf("sample %d = %v, want %v", i, got[i], v)
		}
	}
}

func TestDownmix(t *testing.T) {
	mono := []float32{0.1, 0.2, 0.3}
	if got := downmix(mono, 1); &got[0] != &mono[0] {
		t.Error("downmix(mono) copied its input")
	}

	stereo := []float32{1.0, 0.0, -0.5, -0.5, 0.25, 0.75}
	got := downmix(stereo, 2)
	want := []float32{0.5, -0.5, 0.5}
	if len(got) != len(want) {
		t.Fatalf("downmix() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("downmix()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
