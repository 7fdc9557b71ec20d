// Package engine is the synchronous call boundary to the speech-to-text
// runtimes. An Engine is constructed once per run with its model handle and
// language hint, then reused for every chunk.
package engine

import (
	"context"
	"fmt"
)

// Span is one timed piece of transcription output. Offsets are seconds
// relative to the start of the transcribed chunk.
type Span struct {
	Start float64
	End   float64
	Text  string
}

// Engine transcribes one chunk of 16 kHz mono samples at a time. Failures
// are returned as *InferenceError and are fatal only to that chunk.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32) ([]Span, error)
	Name() string
	Close() error
}

// Config selects and parameterizes the transcription backend.
type Config struct {
	Engine    string // "whisper-cpp" or "openai"
	ModelPath string // local model file (whisper-cpp)
	Model     string // API model name (openai)
	Language  string // ISO language hint; empty means auto-detect
	Threads   int    // CPU threads for local inference (0 = auto)
	APIKey    string // provider credential (openai)
}

// New constructs the configured engine. Model loading and credential checks
// happen here, before any audio is captured, so a broken setup fails the
// run up front instead of on the first chunk.
func New(config Config) (Engine, error) {
	switch config.Engine {
	case "whisper-cpp", "":
		return NewWhisperCppEngine(config)
	case "openai":
		return NewOpenAIEngine(config)
	default:
		return nil, fmt.Errorf("unsupported engine: %s", config.Engine)
	}
}
