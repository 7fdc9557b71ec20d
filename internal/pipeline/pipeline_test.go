package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scribelabs/scribe/internal/audio"
	"github.com/scribelabs/scribe/internal/chunk"
	"github.com/scribelabs/scribe/internal/engine"
	"github.com/scribelabs/scribe/internal/testutil"
	"github.com/scribelabs/scribe/internal/transcript"
)

// streamFrames builds frames whose samples encode the chunk index they
// fall into, so engine mocks can label output by chunk.
func streamFrames(t *testing.T, seconds float64, chunkSeconds float64, frameSize int) [][]float32 {
	t.Helper()
	total := int(seconds * chunk.SampleRate)
	chunkSamples := int(chunkSeconds * chunk.SampleRate)

	var frames [][]float32
	for offset := 0; offset < total; offset += frameSize {
		n := frameSize
		if offset+n > total {
			n = total - offset
		}
		frame := make([]float32, n)
		for i := range frame {
			frame[i] = float32((offset + i) / chunkSamples)
		}
		frames = append(frames, frame)
	}
	return frames
}

func newTestWriter(t *testing.T) *transcript.Writer {
	t.Helper()
	w, err := transcript.NewWriter(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// chunkLabeler returns one span per chunk whose text names the chunk index
// encoded in the samples.
func chunkLabeler(ctx context.Context, samples []float32) ([]engine.Span, error) {
	duration := float64(len(samples)) / chunk.SampleRate
	return []engine.Span{{Start: 0, End: duration, Text: fmt.Sprintf("part %d", int(samples[0]))}}, nil
}

func TestRunFileChunking(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 12, 5, 4096))
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = chunkLabeler
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c.Status() != Stopped {
		t.Errorf("Status() = %s, want stopped", c.Status())
	}
	if summary.Chunks != 3 {
		t.Errorf("summary.Chunks = %d, want 3 (two full + one partial)", summary.Chunks)
	}
	if summary.Duration != 12 {
		t.Errorf("summary.Duration = %v, want 12", summary.Duration)
	}

	lines := readLines(t, writer.Path())
	want := []string{
		"Meeting Minutes - Transcription",
		"Source: mock source",
		"",
		"[00:00 - 00:05] part 0",
		"[00:05 - 00:10] part 1",
		"[00:10 - 00:12] part 2",
	}
	if len(lines) != len(want) {
		t.Fatalf("transcript has %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunReordersOutOfOrderCompletion(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 15, 5, 4096))
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = chunkLabeler
	// later chunks finish first
	eng.Latency = func(call int) time.Duration {
		return time.Duration(90-call*30) * time.Millisecond
	}
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5, Workers: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := readLines(t, writer.Path())
	body := lines[3:]
	want := []string{
		"[00:00 - 00:05] part 0",
		"[00:05 - 00:10] part 1",
		"[00:10 - 00:15] part 2",
	}
	if len(body) != len(want) {
		t.Fatalf("transcript body has %d lines, want %d: %q", len(body), len(want), body)
	}
	for i := range want {
		if body[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, body[i], want[i])
		}
	}
}

func TestRunContinuesPastFailedChunk(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 15, 5, 4096))
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = func(ctx context.Context, samples []float32) ([]engine.Span, error) {
		if int(samples[0]) == 1 {
			return nil, &engine.InferenceError{Engine: "mock", Err: errors.New("boom")}
		}
		return chunkLabeler(ctx, samples)
	}
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil despite failed chunk", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary.Failed = %d, want 1", summary.Failed)
	}

	body := readLines(t, writer.Path())[3:]
	want := []string{
		"[00:00 - 00:05] part 0",
		"[00:10 - 00:15] part 2",
	}
	if len(body) != len(want) {
		t.Fatalf("transcript body = %q, want the failed chunk skipped", body)
	}
	for i := range want {
		if body[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, body[i], want[i])
		}
	}
}

func TestRunWritesFailureMarkers(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 10, 5, 4096))
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = func(ctx context.Context, samples []float32) ([]engine.Span, error) {
		if int(samples[0]) == 0 {
			return nil, &engine.InferenceError{Engine: "mock", Err: errors.New("boom")}
		}
		return chunkLabeler(ctx, samples)
	}
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5, FailureMarkers: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	body := readLines(t, writer.Path())[3:]
	if len(body) != 2 {
		t.Fatalf("transcript body = %q, want marker plus one real line", body)
	}
	if body[0] != "[00:00 - 00:05] [transcription failed]" {
		t.Errorf("marker line = %q", body[0])
	}
}

func TestRunAssignsSpeakersInOrder(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 15, 5, 4096))
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = chunkLabeler
	eng.Latency = func(call int) time.Duration {
		return time.Duration(60-call*25) * time.Millisecond
	}
	assigner := &testutil.MockAssigner{Speaker: 1}
	writer := newTestWriter(t)

	c, err := New(Options{
		Source: source, Engine: eng, Assigner: assigner,
		Writer: writer, ChunkSeconds: 5, Workers: 3,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	starts := assigner.ChunkStarts()
	want := []float64{0, 5, 10}
	if len(starts) != len(want) {
		t.Fatalf("assigner saw %d chunks, want %d", len(starts), len(want))
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("assigner chunk %d start = %v, want %v (must run in sequence order)", i, starts[i], want[i])
		}
	}

	body := readLines(t, writer.Path())[3:]
	for i, line := range body {
		if !strings.Contains(line, "Speaker 1: ") {
			t.Errorf("line %d = %q, want speaker label", i, line)
		}
	}
}

func TestRunFlushesPartialChunk(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 2.3, 5, 1024))
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = chunkLabeler
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Chunks != 1 {
		t.Errorf("summary.Chunks = %d, want 1 flushed partial", summary.Chunks)
	}

	body := readLines(t, writer.Path())[3:]
	if len(body) != 1 || body[0] != "[00:00 - 00:02] part 0" {
		t.Errorf("transcript body = %q, want single partial chunk line", body)
	}
}

func TestStopDrainsCooperatively(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 60, 5, 8192))
	source.FrameDelay = time.Millisecond
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = chunkLabeler
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan struct{})
	var summary Summary
	var runErr error
	go func() {
		defer close(done)
		summary, runErr = c.Run(context.Background())
	}()

	time.Sleep(30 * time.Millisecond)
	c.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Stop()")
	}

	if runErr != nil {
		t.Fatalf("Run() error = %v", runErr)
	}
	if c.Status() != Stopped {
		t.Errorf("Status() = %s, want stopped", c.Status())
	}
	// everything captured before the stop must be flushed and written
	if summary.Chunks < 1 {
		t.Errorf("summary.Chunks = %d, want at least the flushed partial", summary.Chunks)
	}
	if writer.Appended() != summary.Segments {
		t.Errorf("writer.Appended() = %d, summary.Segments = %d", writer.Appended(), summary.Segments)
	}
}

func TestRunSourceStartError(t *testing.T) {
	source := testutil.NewMockSource(nil)
	source.StartErr = audio.ErrSourceUnavailable
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: testutil.NewMockEngine(), Writer: writer})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Run(context.Background()); !errors.Is(err, audio.ErrSourceUnavailable) {
		t.Errorf("Run() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestRunSourceStreamError(t *testing.T) {
	source := testutil.NewMockSource(streamFrames(t, 7, 5, 4096))
	source.StreamErr = fmt.Errorf("%w: bad block", audio.ErrDecode)
	eng := testutil.NewMockEngine()
	eng.TranscribeFunc = chunkLabeler
	writer := newTestWriter(t)

	c, err := New(Options{Source: source, Engine: eng, Writer: writer, ChunkSeconds: 5})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.Run(context.Background())
	if !errors.Is(err, audio.ErrDecode) {
		t.Errorf("Run() error = %v, want ErrDecode", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() with no source = nil error")
	}
	if _, err := New(Options{Source: testutil.NewMockSource(nil)}); err == nil {
		t.Error("New() with no engine = nil error")
	}
}
