package config

// DefaultConfig returns the configuration written by the configure wizard
// and used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Transcription: TranscriptionConfig{
			Engine:       "whisper-cpp",
			Model:        "base.en",
			Language:     "",
			ChunkSeconds: 5,
			Threads:      0,
			Workers:      1,
		},
		Diarization: DiarizationConfig{
			Enabled:             false,
			Mode:                "gap",
			GapThreshold:        1.5,
			MaxSpeakers:         2,
			SimilarityThreshold: 0.4,
			Threads:             2,
		},
		Recording: RecordingConfig{
			Device:            "",
			ChannelBufferSize: 64,
		},
		Output: OutputConfig{
			FailureMarkers: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Providers: make(map[string]ProviderConfig),
	}
}
