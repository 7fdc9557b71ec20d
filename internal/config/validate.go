package config

import (
	"fmt"

	"github.com/scribelabs/scribe/internal/language"
	"github.com/scribelabs/scribe/internal/models"
)

func (c *Config) Validate() error {
	t := &c.Transcription

	if t.ChunkSeconds <= 0 {
		return fmt.Errorf("invalid transcription.chunk_seconds: %v (must be positive)", t.ChunkSeconds)
	}
	if t.Workers < 0 {
		return fmt.Errorf("invalid transcription.workers: %d", t.Workers)
	}
	if !language.IsValidCode(t.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", t.Language)
	}

	switch t.Engine {
	case "whisper-cpp", "":
		if t.Model != "" && t.ModelPath == "" && models.Get(t.Model) == nil {
			return fmt.Errorf("invalid model for whisper-cpp: %s (run 'scribe models list')", t.Model)
		}

	case "openai":
		if c.ResolveAPIKey("openai") == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (providers.openai.api_key, transcription.api_key) or environment variable (OPENAI_API_KEY)")
		}

	default:
		return fmt.Errorf("unsupported transcription.engine: %s (must be whisper-cpp or openai)", t.Engine)
	}

	d := &c.Diarization
	switch d.Mode {
	case "gap", "embedding", "":
	default:
		return fmt.Errorf("invalid diarization.mode: %s (must be gap or embedding)", d.Mode)
	}
	if d.GapThreshold < 0 {
		return fmt.Errorf("invalid diarization.gap_threshold: %v", d.GapThreshold)
	}
	if d.MaxSpeakers < 0 || d.MaxSpeakers == 1 {
		return fmt.Errorf("invalid diarization.max_speakers: %d (must be 0 for default or at least 2)", d.MaxSpeakers)
	}
	if d.SimilarityThreshold < 0 || d.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid diarization.similarity_threshold: %v (must be within [0, 1])", d.SimilarityThreshold)
	}

	if c.Recording.ChannelBufferSize < 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s (must be trace, debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}
