// Package diarize assigns best-effort speaker identities to transcript
// segments. Two interchangeable strategies sit behind one interface: a
// silence-gap heuristic and an embedding-based matcher backed by a speaker
// model.
package diarize

import (
	"fmt"

	"github.com/scribelabs/scribe/internal/transcript"
)

// Assigner labels a chunk's segments with speaker identities. Segments
// arrive in stream order with absolute timestamps; chunkStart is the
// chunk's stream-relative start in seconds and samples are the chunk's
// 16 kHz mono audio. Implementations may carry per-run state between calls
// and are always invoked in chunk sequence order by the coordinator.
type Assigner interface {
	Assign(segments []transcript.Segment, chunkStart float64, samples []float32) []transcript.Segment
	Close()
}

// Config selects the diarization strategy at run configuration time.
type Config struct {
	Mode         string  // "gap" or "embedding"
	GapThreshold float64 // seconds of silence that indicate a speaker change
	MaxSpeakers  int     // rotating identity count for the gap heuristic

	// Embedding strategy settings.
	EmbeddingModelPath  string
	SimilarityThreshold float32 // cosine similarity below this starts a new identity
	Threads             int
}

func DefaultConfig() Config {
	return Config{
		Mode:                "gap",
		GapThreshold:        1.5,
		MaxSpeakers:         2,
		SimilarityThreshold: 0.4,
		Threads:             2,
	}
}

// New constructs the configured assigner. An embedding setup whose model
// is unavailable returns *ModelUnavailableError so the caller can fall
// back to unlabeled output with a single warning.
func New(config Config) (Assigner, error) {
	switch config.Mode {
	case "gap", "":
		return NewGapAssigner(config), nil
	case "embedding":
		return NewEmbeddingAssigner(config)
	default:
		return nil, fmt.Errorf("unsupported diarization mode: %s", config.Mode)
	}
}
