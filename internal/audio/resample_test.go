package audio

import (
	"math"
	"testing"

	"github.com/scribelabs/scribe/internal/chunk"
)

func TestNormalizerNoOpCopy(t *testing.T) {
	n := NewNormalizer(chunk.SampleRate, 1)

	in := []float32{0.1, -0.2, 0.3}
	out := n.Process(in)

	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d = %v, want %v", i, out[i], in[i])
		}
	}

	// Must be a copy, not the same backing array.
	out[0] = 42
	if in[0] == 42 {
		t.Errorf("Process() aliased the input slice")
	}
}

func TestNormalizerDownmix(t *testing.T) {
	n := NewNormalizer(chunk.SampleRate, 2)

	out := n.Process([]float32{1, 0, 0.5, -0.5, -1, 1})
	want := []float32{0.5, 0, 0}
	if len(out) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out), len(want))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestNormalizerResampleLength(t *testing.T) {
	// 48 kHz mono down to 16 kHz should produce one output sample per three
	// input samples, within the single carried sample of filter state.
	n := NewNormalizer(48000, 1)

	total := 0
	for i := 0; i < 10; i++ {
		in := make([]float32, 4800)
		total += len(n.Process(in))
	}

	want := 48000 / 3
	if total < want-2 || total > want {
		t.Errorf("resampled %d samples, want about %d", total, want)
	}
}

func TestNormalizerResampleIsContinuous(t *testing.T) {
	// A constant-slope ramp must stay a ramp across call boundaries; any
	// seam between Process calls would show up as a jump.
	n := NewNormalizer(32000, 1)

	var out []float32
	idx := 0
	for call := 0; call < 8; call++ {
		in := make([]float32, 1000)
		for i := range in {
			in[i] = float32(idx) / 32000
			idx++
		}
		out = append(out, n.Process(in)...)
	}

	step := 2.0 / 32000 // downsampling by 2 doubles the per-sample increment
	for i := 1; i < len(out); i++ {
		got := float64(out[i] - out[i-1])
		if math.Abs(got-step) > 1e-5 {
			t.Fatalf("discontinuity at output sample %d: delta %v, want %v", i, got, step)
		}
	}
}

func TestNormalizerDeterministic(t *testing.T) {
	in := make([]float32, 441)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) / 7))
	}

	a := NewNormalizer(44100, 1).Process(in)
	b := NewNormalizer(44100, 1).Process(in)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	if got := RMS([]float32{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("RMS() = %v, want 0.5", got)
	}
}
