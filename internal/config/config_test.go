package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Transcription.Engine != "whisper-cpp" {
		t.Errorf("engine = %s, want whisper-cpp", cfg.Transcription.Engine)
	}
	if cfg.Transcription.ChunkSeconds != 5 {
		t.Errorf("chunk_seconds = %v, want 5", cfg.Transcription.ChunkSeconds)
	}
	if cfg.Transcription.Threads < 1 {
		t.Errorf("threads = %d, want at least 1 after default resolution", cfg.Transcription.Threads)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[transcription]
engine = "openai"
model = "whisper-1"

[diarization]
enabled = true
gap_threshold = 2.0
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Transcription.Engine != "openai" {
		t.Errorf("engine = %s, want openai", cfg.Transcription.Engine)
	}
	if cfg.Transcription.ChunkSeconds != 5 {
		t.Errorf("chunk_seconds = %v, want default 5", cfg.Transcription.ChunkSeconds)
	}
	if cfg.Diarization.GapThreshold != 2.0 {
		t.Errorf("gap_threshold = %v, want 2.0", cfg.Diarization.GapThreshold)
	}
	if cfg.Diarization.MaxSpeakers != 2 {
		t.Errorf("max_speakers = %v, want default 2", cfg.Diarization.MaxSpeakers)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := writeTempConfig(t, "not [valid toml")
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() with malformed toml = nil, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero chunk seconds",
			mutate:  func(c *Config) { c.Transcription.ChunkSeconds = 0 },
			wantErr: "chunk_seconds",
		},
		{
			name:    "negative chunk seconds",
			mutate:  func(c *Config) { c.Transcription.ChunkSeconds = -1 },
			wantErr: "chunk_seconds",
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Transcription.Engine = "dictaphone" },
			wantErr: "transcription.engine",
		},
		{
			name:    "bad language code",
			mutate:  func(c *Config) { c.Transcription.Language = "english" },
			wantErr: "transcription.language",
		},
		{
			name:    "unknown whisper model",
			mutate:  func(c *Config) { c.Transcription.Model = "enormous-v9" },
			wantErr: "invalid model",
		},
		{
			name: "explicit model path skips catalog check",
			mutate: func(c *Config) {
				c.Transcription.Model = "enormous-v9"
				c.Transcription.ModelPath = "/models/custom.bin"
			},
		},
		{
			name:    "openai without key",
			mutate:  func(c *Config) { c.Transcription.Engine = "openai" },
			wantErr: "API key",
		},
		{
			name: "openai with key",
			mutate: func(c *Config) {
				c.Transcription.Engine = "openai"
				c.Providers["openai"] = ProviderConfig{APIKey: "sk-test"}
			},
		},
		{
			name:    "bad diarization mode",
			mutate:  func(c *Config) { c.Diarization.Mode = "vibes" },
			wantErr: "diarization.mode",
		},
		{
			name:    "single speaker rotation",
			mutate:  func(c *Config) { c.Diarization.MaxSpeakers = 1 },
			wantErr: "max_speakers",
		},
		{
			name:    "similarity out of range",
			mutate:  func(c *Config) { c.Diarization.SimilarityThreshold = 1.5 },
			wantErr: "similarity_threshold",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := DefaultConfig()
	if got := cfg.ResolveAPIKey("openai"); got != "sk-env" {
		t.Errorf("ResolveAPIKey() = %s, want env fallback sk-env", got)
	}

	cfg.Transcription.APIKey = "sk-legacy"
	if got := cfg.ResolveAPIKey("openai"); got != "sk-legacy" {
		t.Errorf("ResolveAPIKey() = %s, want legacy key over env", got)
	}

	cfg.Providers["openai"] = ProviderConfig{APIKey: "sk-provider"}
	if got := cfg.ResolveAPIKey("openai"); got != "sk-provider" {
		t.Errorf("ResolveAPIKey() = %s, want provider key first", got)
	}
}

func TestToDiarizeConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Diarization.Mode = "embedding"
	cfg.Diarization.EmbeddingModel = "/models/speaker.onnx"
	cfg.Diarization.SimilarityThreshold = 0.55

	dc := cfg.ToDiarizeConfig()
	if dc.Mode != "embedding" {
		t.Errorf("Mode = %s, want embedding", dc.Mode)
	}
	if dc.EmbeddingModelPath != "/models/speaker.onnx" {
		t.Errorf("EmbeddingModelPath = %s", dc.EmbeddingModelPath)
	}
	if dc.SimilarityThreshold != 0.55 {
		t.Errorf("SimilarityThreshold = %v, want 0.55", dc.SimilarityThreshold)
	}
}

func TestToEngineConfigOpenAI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transcription.Engine = "openai"
	cfg.Transcription.Model = "whisper-1"
	cfg.Providers["openai"] = ProviderConfig{APIKey: "sk-test"}

	ec, err := cfg.ToEngineConfig()
	if err != nil {
		t.Fatalf("ToEngineConfig() error = %v", err)
	}
	if ec.Engine != "openai" || ec.APIKey != "sk-test" || ec.Model != "whisper-1" {
		t.Errorf("ToEngineConfig() = %+v", ec)
	}
}
