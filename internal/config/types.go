package config

type Config struct {
	Transcription TranscriptionConfig       `toml:"transcription"`
	Diarization   DiarizationConfig         `toml:"diarization"`
	Recording     RecordingConfig           `toml:"recording"`
	Output        OutputConfig              `toml:"output"`
	Logging       LoggingConfig             `toml:"logging"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

type TranscriptionConfig struct {
	Engine       string  `toml:"engine"`     // "whisper-cpp" or "openai"
	Model        string  `toml:"model"`      // catalog model ID for whisper-cpp, API model for openai
	ModelPath    string  `toml:"model_path"` // explicit model file, overrides model resolution
	Language     string  `toml:"language"`   // ISO-639-1 code, empty = auto-detect
	ChunkSeconds float64 `toml:"chunk_seconds"`
	Threads      int     `toml:"threads"` // CPU threads for local transcription (0 = auto: NumCPU-1)
	Workers      int     `toml:"workers"` // concurrent chunks in flight
	APIKey       string  `toml:"api_key"` // deprecated, prefer providers.openai.api_key
}

type DiarizationConfig struct {
	Enabled             bool    `toml:"enabled"`
	Mode                string  `toml:"mode"` // "gap" or "embedding"
	GapThreshold        float64 `toml:"gap_threshold"`
	MaxSpeakers         int     `toml:"max_speakers"`
	EmbeddingModel      string  `toml:"embedding_model"` // explicit model file for embedding mode
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	Threads             int     `toml:"threads"`
}

type RecordingConfig struct {
	Device            string `toml:"device"`              // capture device name substring, empty = default
	ChannelBufferSize int    `toml:"channel_buffer_size"` // frames buffered between capture and chunking
}

type OutputConfig struct {
	Directory      string `toml:"directory"`       // default directory for live transcripts, empty = cwd
	FailureMarkers bool   `toml:"failure_markers"` // write a marker line for chunks that failed transcription
}

type LoggingConfig struct {
	Level  string `toml:"level"` // trace, debug, info, warn, error
	Pretty bool   `toml:"pretty"`
}

// ProviderConfig holds the API key for a remote provider.
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}
