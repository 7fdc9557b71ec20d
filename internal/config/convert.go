package config

import (
	"os"

	"github.com/scribelabs/scribe/internal/diarize"
	"github.com/scribelabs/scribe/internal/engine"
	"github.com/scribelabs/scribe/internal/models"
)

// envVarByProvider maps provider names to their conventional API key
// environment variables.
var envVarByProvider = map[string]string{
	"openai": "OPENAI_API_KEY",
}

// ResolveAPIKey returns the API key for a provider, preferring the config
// file over the environment.
func (c *Config) ResolveAPIKey(providerName string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[providerName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}
	if c.Transcription.APIKey != "" {
		return c.Transcription.APIKey
	}
	if envVar, ok := envVarByProvider[providerName]; ok {
		return os.Getenv(envVar)
	}
	return ""
}

// ToEngineConfig builds the transcription engine configuration. For the
// local engine the model file is resolved through the model catalog unless
// an explicit path is set.
func (c *Config) ToEngineConfig() (engine.Config, error) {
	t := &c.Transcription
	cfg := engine.Config{
		Engine:   t.Engine,
		Model:    t.Model,
		Language: t.Language,
		Threads:  t.Threads,
	}

	switch t.Engine {
	case "whisper-cpp", "":
		path, err := models.Resolve(t.Model, t.ModelPath)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.ModelPath = path
	case "openai":
		cfg.APIKey = c.ResolveAPIKey("openai")
	}

	return cfg, nil
}

// ToDiarizeConfig builds the speaker assignment configuration. The
// embedding model path falls back to the installed catalog model when not
// set explicitly.
func (c *Config) ToDiarizeConfig() diarize.Config {
	d := &c.Diarization
	cfg := diarize.Config{
		Mode:                d.Mode,
		GapThreshold:        d.GapThreshold,
		MaxSpeakers:         d.MaxSpeakers,
		EmbeddingModelPath:  d.EmbeddingModel,
		SimilarityThreshold: float32(d.SimilarityThreshold),
		Threads:             d.Threads,
	}
	if cfg.Mode == "embedding" && cfg.EmbeddingModelPath == "" {
		if path, err := models.InstalledPath("wespeaker"); err == nil {
			cfg.EmbeddingModelPath = path
		}
	}
	return cfg
}
