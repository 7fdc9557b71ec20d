package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// OpenAIEngine transcribes chunks through the OpenAI audio API, requesting
// verbose JSON so per-segment timings come back with the text.
type OpenAIEngine struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAIEngine(config Config) (*OpenAIEngine, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai engine requires an API key")
	}
	model := config.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIEngine{
		client:   openai.NewClient(config.APIKey),
		model:    model,
		language: config.Language,
	}, nil
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Close() error { return nil }

func (e *OpenAIEngine) Transcribe(ctx context.Context, samples []float32) ([]Span, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	req := openai.AudioRequest{
		Model:    e.model,
		Reader:   bytes.NewReader(encodeWAV(samples)),
		FilePath: "chunk.wav",
		Language: e.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	start := time.Now()
	resp, err := e.client.CreateTranscription(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newInferenceError(e.Name(), fmt.Errorf("create transcription: %w", err))
	}

	duration := float64(len(samples)) / 16000.0

	var spans []Span
	for _, seg := range resp.Segments {
		span := Span{Start: seg.Start, End: seg.End, Text: seg.Text}
		if span.Start >= duration {
			continue
		}
		if span.End > duration {
			span.End = duration
		}
		spans = append(spans, span)
	}

	// Some API models return plain text without segment timings; fall back
	// to one span covering the chunk.
	if len(spans) == 0 && resp.Text != "" {
		spans = append(spans, Span{Start: 0, End: duration, Text: resp.Text})
	}

	log.Debug().Dur("elapsed", elapsed).Int("spans", len(spans)).
		Msg("openai: chunk transcribed")
	return spans, nil
}
