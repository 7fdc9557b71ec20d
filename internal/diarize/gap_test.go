package diarize

import (
	"testing"

	"github.com/scribelabs/scribe/internal/transcript"
)

func segs(times ...[2]float64) []transcript.Segment {
	var out []transcript.Segment
	for _, t := range times {
		out = append(out, transcript.Segment{Start: t[0], End: t[1], Text: "x"})
	}
	return out
}

func TestGapAssignerSwitchesOnLargeGap(t *testing.T) {
	a := NewGapAssigner(Config{GapThreshold: 1.5, MaxSpeakers: 2})

	out := a.Assign(segs([2]float64{0, 2}, [2]float64{3.6, 5}), 0, nil)
	if out[0].Speaker != 1 {
		t.Errorf("first segment speaker = %d, want 1", out[0].Speaker)
	}
	if out[1].Speaker == out[0].Speaker {
		t.Errorf("gap of 1.6s >= threshold should switch speakers, both got %d", out[0].Speaker)
	}
}

func TestGapAssignerKeepsSpeakerOnSmallGap(t *testing.T) {
	a := NewGapAssigner(Config{GapThreshold: 1.5, MaxSpeakers: 2})

	out := a.Assign(segs([2]float64{0, 2}, [2]float64{3.0, 5}), 0, nil)
	if out[1].Speaker != out[0].Speaker {
		t.Errorf("gap of 1.0s < threshold should keep speaker: got %d then %d",
			out[0].Speaker, out[1].Speaker)
	}
}

func TestGapAssignerExactThresholdSwitches(t *testing.T) {
	a := NewGapAssigner(Config{GapThreshold: 1.5, MaxSpeakers: 2})

	out := a.Assign(segs([2]float64{0, 1}, [2]float64{2.5, 3}), 0, nil)
	if out[1].Speaker == out[0].Speaker {
		t.Errorf("gap exactly at threshold should switch speakers")
	}
}

func TestGapAssignerCarriesStateAcrossChunks(t *testing.T) {
	a := NewGapAssigner(Config{GapThreshold: 1.5, MaxSpeakers: 2})

	first := a.Assign(segs([2]float64{0, 4.8}), 0, nil)
	// Next chunk starts 0.2s after the previous segment ended: same speaker.
	second := a.Assign(segs([2]float64{5.0, 7.0}), 5, nil)
	if second[0].Speaker != first[0].Speaker {
		t.Errorf("contiguous speech across chunks switched speaker: %d then %d",
			first[0].Speaker, second[0].Speaker)
	}

	// A long silence spanning the chunk boundary switches.
	third := a.Assign(segs([2]float64{9.5, 10}), 8, nil)
	if third[0].Speaker == second[0].Speaker {
		t.Errorf("2.5s silence across chunks kept speaker %d", third[0].Speaker)
	}
}

func TestGapAssignerRotatesThroughConfiguredSpeakers(t *testing.T) {
	a := NewGapAssigner(Config{GapThreshold: 1.0, MaxSpeakers: 3})

	out := a.Assign(segs(
		[2]float64{0, 1},
		[2]float64{3, 4},
		[2]float64{6, 7},
		[2]float64{9, 10},
	), 0, nil)

	want := []int{1, 2, 3, 1}
	for i := range want {
		if out[i].Speaker != want[i] {
			t.Errorf("segment %d speaker = %d, want %d", i, out[i].Speaker, want[i])
		}
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	a, err := New(Config{Mode: "gap"})
	if err != nil {
		t.Fatalf("New(gap) error: %v", err)
	}
	if _, ok := a.(*GapAssigner); !ok {
		t.Errorf("New(gap) returned %T", a)
	}

	if _, err := New(Config{Mode: "astrology"}); err == nil {
		t.Errorf("New() accepted unknown mode")
	}
}

func TestEmbeddingModeWithoutModelIsUnavailable(t *testing.T) {
	_, err := New(Config{Mode: "embedding"})
	mu, ok := IsModelUnavailable(err)
	if !ok {
		t.Fatalf("New(embedding) error = %v, want ModelUnavailableError", err)
	}
	if mu.Remediation == "" {
		t.Errorf("ModelUnavailableError has no remediation guidance")
	}

	_, err = New(Config{Mode: "embedding", EmbeddingModelPath: "/nonexistent/model.onnx"})
	if _, ok := IsModelUnavailable(err); !ok {
		t.Errorf("missing model file error = %v, want ModelUnavailableError", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if sim := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); sim < 0.999 {
		t.Errorf("identical vectors similarity = %v", sim)
	}
	if sim := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); sim > 0.001 || sim < -0.001 {
		t.Errorf("orthogonal vectors similarity = %v", sim)
	}
	if sim := cosineSimilarity([]float32{1, 0}, []float32{0, 0}); sim != 0 {
		t.Errorf("zero vector similarity = %v, want 0", sim)
	}
	if sim := cosineSimilarity([]float32{1}, []float32{1, 2}); sim != 0 {
		t.Errorf("mismatched lengths similarity = %v, want 0", sim)
	}
}
