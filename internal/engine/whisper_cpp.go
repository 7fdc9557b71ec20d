package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WhisperCppEngine runs local transcription through the whisper-cli binary
// from whisper.cpp. The model path and binary are resolved once at
// construction; each Transcribe call writes the chunk to a temp WAV and
// parses the timestamped output lines.
type WhisperCppEngine struct {
	binPath   string
	modelPath string
	language  string
	threads   int
}

func NewWhisperCppEngine(config Config) (*WhisperCppEngine, error) {
	binPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		return nil, fmt.Errorf("whisper-cli not found: install whisper.cpp first")
	}

	if config.ModelPath == "" {
		return nil, fmt.Errorf("whisper-cpp engine requires a model path")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", config.ModelPath)
	}

	return &WhisperCppEngine{
		binPath:   binPath,
		modelPath: config.ModelPath,
		language:  config.Language,
		threads:   config.Threads,
	}, nil
}

func (e *WhisperCppEngine) Name() string { return "whisper-cpp" }

func (e *WhisperCppEngine) Close() error { return nil }

func (e *WhisperCppEngine) Transcribe(ctx context.Context, samples []float32) ([]Span, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("scribe-%s.wav", uuid.NewString()))
	if err := os.WriteFile(tmpFile, encodeWAV(samples), 0600); err != nil {
		return nil, newInferenceError(e.Name(), fmt.Errorf("write temp file: %w", err))
	}
	defer os.Remove(tmpFile)

	lang := e.language
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", e.modelPath,
		"-l", lang,
		"-np", // no progress
		"-f", tmpFile,
	}
	if e.threads > 0 {
		args = append(args, "-t", strconv.Itoa(e.threads))
	}

	cmd := exec.CommandContext(ctx, e.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Dur("elapsed", elapsed).Str("stderr", stderr.String()).
			Msg("whisper-cpp: command failed")
		return nil, newInferenceError(e.Name(), fmt.Errorf("whisper-cli: %w", err))
	}

	duration := float64(len(samples)) / 16000.0
	spans := parseWhisperOutput(stdout.String(), duration)

	log.Debug().Dur("elapsed", elapsed).Int("spans", len(spans)).
		Msg("whisper-cpp: chunk transcribed")
	return spans, nil
}

// whisperLine matches whisper-cli's default output format:
// [00:00:00.000 --> 00:00:04.280]   text
var whisperLine = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})\.(\d{3}) --> (\d{2}):(\d{2}):(\d{2})\.(\d{3})\]\s*(.*)$`)

// parseWhisperOutput extracts timed spans from whisper-cli stdout. Whisper
// pads short audio internally, so offsets are clamped to the real chunk
// duration and spans entirely past it are dropped.
func parseWhisperOutput(output string, duration float64) []Span {
	var spans []Span
	for _, line := range strings.Split(output, "\n") {
		m := whisperLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[9])
		if text == "" {
			continue
		}
		span := Span{
			Start: timestampSeconds(m[1], m[2], m[3], m[4]),
			End:   timestampSeconds(m[5], m[6], m[7], m[8]),
			Text:  text,
		}
		if span.Start >= duration {
			continue
		}
		if span.End > duration {
			span.End = duration
		}
		if span.End < span.Start {
			span.End = span.Start
		}
		spans = append(spans, span)
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func timestampSeconds(hh, mm, ss, ms string) float64 {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	s, _ := strconv.Atoi(ss)
	f, _ := strconv.Atoi(ms)
	return float64(h*3600+m*60+s) + float64(f)/1000.0
}
