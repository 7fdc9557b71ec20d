// Package testutil provides shared mocks and helpers for pipeline tests.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scribelabs/scribe/internal/engine"
	"github.com/scribelabs/scribe/internal/transcript"
)

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// Samples generates n mono samples of a slow ramp, useful when tests need
// recognizable non-silent audio.
func Samples(n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}
	return samples
}

// MockSource implements audio.Source from a fixed set of frames.
type MockSource struct {
	Frames     [][]float32
	Rate       int
	NumChan    int
	Desc       string
	IsLive     bool
	FrameDelay time.Duration // pause between frames, simulates live capture
	StartErr   error
	StreamErr  error // sent on the error channel after all frames

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewMockSource(frames [][]float32) *MockSource {
	return &MockSource{
		Frames:  frames,
		Rate:    16000,
		NumChan: 1,
		Desc:    "mock source",
		stopped: make(chan struct{}),
	}
}

func (m *MockSource) Start(ctx context.Context) (<-chan []float32, <-chan error, error) {
	if m.StartErr != nil {
		return nil, nil, m.StartErr
	}

	frames := make(chan []float32)
	errs := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errs)
		for _, frame := range m.Frames {
			if m.FrameDelay > 0 {
				time.Sleep(m.FrameDelay)
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			case <-m.stopped:
				return
			}
		}
		if m.StreamErr != nil {
			errs <- m.StreamErr
		}
	}()

	return frames, errs, nil
}

func (m *MockSource) Stop() {
	m.stopOnce.Do(func() { close(m.stopped) })
}

func (m *MockSource) SampleRate() int    { return m.Rate }
func (m *MockSource) Channels() int      { return m.NumChan }
func (m *MockSource) Descriptor() string { return m.Desc }
func (m *MockSource) Live() bool         { return m.IsLive }

// MockEngine implements engine.Engine. By default each chunk produces one
// span covering the whole chunk, so tests control text and failures via
// TranscribeFunc and timing via Latency.
type MockEngine struct {
	TranscribeFunc func(ctx context.Context, samples []float32) ([]engine.Span, error)
	Latency        func(call int) time.Duration // per-call artificial inference delay

	calls  atomic.Int64
	closed atomic.Bool
}

func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

func (m *MockEngine) Transcribe(ctx context.Context, samples []float32) ([]engine.Span, error) {
	call := int(m.calls.Add(1)) - 1
	if m.Latency != nil {
		select {
		case <-time.After(m.Latency(call)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, samples)
	}
	duration := float64(len(samples)) / 16000
	return []engine.Span{{Start: 0, End: duration, Text: "mock transcription"}}, nil
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) Close() error {
	m.closed.Store(true)
	return nil
}

// Calls returns how many times Transcribe ran.
func (m *MockEngine) Calls() int { return int(m.calls.Load()) }

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool { return m.closed.Load() }

// MockAssigner implements diarize.Assigner, labeling every segment with a
// fixed speaker and recording the order chunks arrived in.
type MockAssigner struct {
	Speaker int

	mu          sync.Mutex
	chunkStarts []float64
}

func (m *MockAssigner) Assign(segments []transcript.Segment, chunkStart float64, samples []float32) []transcript.Segment {
	m.mu.Lock()
	m.chunkStarts = append(m.chunkStarts, chunkStart)
	m.mu.Unlock()

	for i := range segments {
		segments[i].Speaker = m.Speaker
	}
	return segments
}

func (m *MockAssigner) Close() {}

// ChunkStarts returns the chunk start offsets in the order Assign saw them.
func (m *MockAssigner) ChunkStarts() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.chunkStarts...)
}
