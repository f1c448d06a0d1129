package audio

import "testing"

func ramp(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestNewFramer_Invalid(t *testing.T) {
	if _, err := NewFramer(0, 0); err != ErrInvalidFrameSize {
		t.Errorf("NewFramer(0, 0) error = %v, want ErrInvalidFrameSize", err)
	}
	for _, pct := range []int{-1, 100, 150} {
		if _, err := NewFramer(2048, pct); err != ErrInvalidOverlap {
			t.Errorf("NewFramer(2048, %d) error = %v, want ErrInvalidOverlap", pct, err)
		}
	}
}

func TestFramer_NoOverlap(t *testing.T) {
	f, _ := NewFramer(4, 0)

	var frames [][]float32
	emit := func(frame []float32) { frames = append(frames, frame) }

	// Chunks that do not line up with frame boundaries
	f.Write(ramp(0, 3), emit)
	f.Write(ramp(3, 6), emit)
	f.Write(ramp(9, 2), emit)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	for n, frame := range frames {
		for i, v := range frame {
			if want := float32(n*4 + i); v != want {
				t.Errorf("frame %d sample %d = %v, want %v", n, i, v, want)
			}
		}
	}
	if f.Pending() != 3 {
		t.Errorf("Pending() = %d, want 3", f.Pending())
	}
}

func TestFramer_Overlap(t *testing.T) {
	f, _ := NewFramer(4, 50)

	var starts []float32
	f.Write(ramp(0, 10), func(frame []float32) { starts = append(starts, frame[0]) })

	want := []float32{0, 2, 4, 6}
	if len(starts) != len(want) {
		t.Fatalf("got %d frames, want %d", len(starts), len(want))
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("frame %d starts at %v, want %v", i, starts[i], want[i])
		}
	}
}

func TestFramer_FramesAreIndependent(t *testing.T) {
	f, _ := NewFramer(2, 0)

	var frames [][]float32
	f.Write(ramp(0, 4), func(frame []float32) { frames = append(frames, frame) })
	frames[0][0] = 99
	f.Write(ramp(4, 2), func(frame []float32) { frames = append(frames, frame) })

	if frames[1][0] != 2 || frames[2][0] != 4 {
		t.Errorf("frames share storage: %v", frames)
	}
}

func TestFramer_Reset(t *testing.T) {
	f, _ := NewFramer(4, 0)
	f.Write(ramp(0, 3), func([]float32) {})
	f.Reset()

	if f.Pending() != 0 {
		t.Errorf("Pending() after Reset = %d, want 0", f.Pending())
	}
	if f.Size() != 4 {
		t.Errorf("Size() = %d, want 4", f.Size())
	}
}

func TestFramer_Hop(t *testing.T) {
	tests := []struct {
		size, overlap, want int
	}{
		{2048, 0, 2048},
		{2048, 50, 1024},
		{2048, 75, 512},
		{10, 33, 7},
	}
	for _, tt := range tests {
		f, err := NewFramer(tt.size, tt.overlap)
		if err != nil {
			t.Fatalf("NewFramer(%d, %d) error = %v", tt.size, tt.overlap, err)
		}
		if got := f.Hop(); got != tt.want {
			t.Errorf("NewFramer(%d, %d).Hop() = %d, want %d", tt.size, tt.overlap, got, tt.want)
		}
	}
}
