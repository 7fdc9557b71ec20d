// Package models knows which transcription and speaker models scribe can
// use, where they live on disk, and how to fetch them.
package models

import (
	"os"
	"path/filepath"
)

// Kind separates whisper transcription models from speaker embedding models.
type Kind string

const (
	KindWhisper Kind = "whisper"
	KindSpeaker Kind = "speaker"
)

// Model holds metadata for a downloadable model file.
type Model struct {
	ID           string // identifier used in config and on the CLI (e.g. "base.en")
	Name         string // display name (e.g. "Base English")
	Filename     string // file name on disk (e.g. "ggml-base.en.bin")
	Kind         Kind
	Size         string // human readable size
	SizeBytes    int64  // expected size for progress tracking
	URL          string // download URL
	Multilingual bool   // whisper models only
}

const whisperBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// speaker embedding model served from the sherpa-onnx release assets
const speakerModelURL = "https://github.com/k2-fsa/sherpa-onnx/releases/download/speaker-recongition-models/wespeaker_en_voxceleb_resnet34.onnx"

func whisperModel(id, name, size string, sizeBytes int64, multilingual bool) Model {
	filename := "ggml-" + id + ".bin"
	return Model{
		ID:           id,
		Name:         name,
		Filename:     filename,
		Kind:         KindWhisper,
		Size:         size,
		SizeBytes:    sizeBytes,
		URL:          whisperBaseURL + "/" + filename,
		Multilingual: multilingual,
	}
}

var catalog = []Model{
	// english-only whisper models (faster, smaller)
	whisperModel("tiny.en", "Tiny English", "75MB", 75_000_000, false),
	whisperModel("base.en", "Base English", "142MB", 142_000_000, false),
	whisperModel("small.en", "Small English", "466MB", 466_000_000, false),
	whisperModel("medium.en", "Medium English", "1.5GB", 1_500_000_000, false),

	// multilingual whisper models
	whisperModel("tiny", "Tiny", "75MB", 75_000_000, true),
	whisperModel("base", "Base", "142MB", 142_000_000, true),
	whisperModel("small", "Small", "466MB", 466_000_000, true),
	whisperModel("medium", "Medium", "1.5GB", 1_500_000_000, true),
	whisperModel("large-v3", "Large V3", "3GB", 3_000_000_000, true),

	{
		ID:        "wespeaker",
		Name:      "WeSpeaker ResNet34 (speaker embeddings)",
		Filename:  "wespeaker_en_voxceleb_resnet34.onnx",
		Kind:      KindSpeaker,
		Size:      "26MB",
		SizeBytes: 26_000_000,
		URL:       speakerModelURL,
	},
}

var catalogByID = func() map[string]Model {
	m := make(map[string]Model, len(catalog))
	for _, model := range catalog {
		m[model.ID] = model
	}
	return m
}()

// Dir returns the directory where models are stored. It does not create it.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "scribe", "models"), nil
}

// Path returns the on-disk path a model would occupy, or "" for an
// unknown ID.
func Path(modelID string) string {
	info, ok := catalogByID[modelID]
	if !ok {
		return ""
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, info.Filename)
}

// Get returns catalog info for a model by ID, or nil if unknown.
func Get(modelID string) *Model {
	info, ok := catalogByID[modelID]
	if !ok {
		return nil
	}
	return &info
}

// List returns the full model catalog.
func List() []Model {
	result := make([]Model, len(catalog))
	copy(result, catalog)
	return result
}

// ListKind returns all catalog entries of one kind.
func ListKind(kind Kind) []Model {
	var result []Model
	for _, m := range catalog {
		if m.Kind == kind {
			result = append(result, m)
		}
	}
	return result
}
