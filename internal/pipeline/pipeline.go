// Package pipeline coordinates the transcription run: audio frames are
// normalized and cut into chunks, chunks are transcribed concurrently, and
// results are released strictly in chunk order so the transcript reads
// top to bottom regardless of which inference finished first.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scribelabs/scribe/internal/audio"
	"github.com/scribelabs/scribe/internal/chunk"
	"github.com/scribelabs/scribe/internal/diarize"
	"github.com/scribelabs/scribe/internal/engine"
	"github.com/scribelabs/scribe/internal/transcript"
)

type Status string

const (
	Idle      Status = "idle"
	Capturing Status = "capturing"
	Draining  Status = "draining"
	Stopped   Status = "stopped"
)

// failureMarkerText is written for failed chunks when markers are enabled.
const failureMarkerText = "[transcription failed]"

// Progress reports one released chunk, in order, to the live display.
type Progress struct {
	Seq      uint64
	Start    float64
	End      float64
	RMS      float64
	Segments []transcript.Segment
	Err      error // non-nil when the chunk's transcription failed
}

// Summary totals a finished run.
type Summary struct {
	Chunks   int     // chunks released through the sequencer
	Failed   int     // chunks whose transcription failed
	Dropped  uint64  // chunks discarded under live backpressure
	Segments int     // transcript lines written
	Duration float64 // seconds of audio covered
}

// Options wires a run together. Source, Engine and Writer are required;
// Assigner may be nil for unlabeled output.
type Options struct {
	Source         audio.Source
	Engine         engine.Engine
	Assigner       diarize.Assigner
	Writer         *transcript.Writer
	ChunkSeconds   float64
	Workers        int // concurrent chunks in flight, minimum 1
	FailureMarkers bool
	OnProgress     func(Progress)
}

type Coordinator struct {
	opts Options

	mu     sync.Mutex
	status Status

	stopOnce sync.Once
	stopCh   chan struct{}
	dropped  atomic.Uint64
}

type result struct {
	chunk   chunk.Chunk
	spans   []engine.Span
	err     error
	dropped bool
}

func New(opts Options) (*Coordinator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: source is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("pipeline: engine is required")
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("pipeline: writer is required")
	}
	if opts.ChunkSeconds <= 0 {
		opts.ChunkSeconds = 5
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Coordinator{
		opts:   opts,
		status: Idle,
		stopCh: make(chan struct{}),
	}, nil
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// Stop requests a cooperative drain: capture ends, the partial chunk is
// flushed, and everything already enqueued is transcribed and written
// before Run returns. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.setStatus(Draining)
		close(c.stopCh)
	})
}

// Run executes the pipeline until the source is exhausted, Stop is called,
// or a fatal error occurs. It blocks and is not restartable.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()[:8]
	logger := log.With().Str("run", runID).Logger()

	buffer, err := chunk.NewBuffer(c.opts.ChunkSeconds)
	if err != nil {
		return Summary{}, err
	}

	if err := c.opts.Writer.Init(c.opts.Source.Descriptor()); err != nil {
		return Summary{}, fmt.Errorf("failed to initialize transcript: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames, sourceErrs, err := c.opts.Source.Start(runCtx)
	if err != nil {
		return Summary{}, err
	}
	defer c.opts.Source.Stop()

	c.setStatus(Capturing)
	logger.Info().
		Str("source", c.opts.Source.Descriptor()).
		Str("engine", c.opts.Engine.Name()).
		Float64("chunk_seconds", c.opts.ChunkSeconds).
		Int("workers", c.opts.Workers).
		Msg("pipeline: run started")

	chunks := make(chan chunk.Chunk, c.opts.Workers)
	results := make(chan result, c.opts.Workers)

	var captureErr error
	var captureWg sync.WaitGroup
	captureWg.Add(1)
	go func() {
		defer captureWg.Done()
		defer close(chunks)
		captureErr = c.capture(runCtx, frames, sourceErrs, buffer, chunks, results, logger)
	}()

	var workerWg sync.WaitGroup
	for i := 0; i < c.opts.Workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			c.work(runCtx, chunks, results)
		}()
	}
	go func() {
		workerWg.Wait()
		close(results)
	}()

	summary, seqErr := c.sequence(results, logger)
	if seqErr != nil {
		// unblock capture and workers, then discard whatever they
		// still produce
		cancel()
		go func() {
			for range results {
			}
		}()
	}

	captureWg.Wait()
	summary.Dropped = c.dropped.Load()
	c.setStatus(Stopped)

	err = seqErr
	if err == nil {
		err = captureErr
	}
	if err != nil {
		logger.Error().Err(err).Msg("pipeline: run failed")
		return summary, err
	}

	logger.Info().
		Int("chunks", summary.Chunks).
		Int("failed", summary.Failed).
		Uint64("dropped", summary.Dropped).
		Int("segments", summary.Segments).
		Msg("pipeline: run complete")
	return summary, nil
}

// capture consumes source frames, normalizes them to the pipeline format
// and cuts chunks. It returns after the source closes its frame channel,
// flushing the trailing partial chunk on the way out.
func (c *Coordinator) capture(
	ctx context.Context,
	frames <-chan []float32,
	sourceErrs <-chan error,
	buffer *chunk.Buffer,
	chunks chan<- chunk.Chunk,
	results chan<- result,
	logger zerolog.Logger,
) error {
	normalizer := audio.NewNormalizer(c.opts.Source.SampleRate(), c.opts.Source.Channels())
	live := c.opts.Source.Live()
	stopCh := c.stopCh

	// blocking send, used for file sources and for the drain flush
	send := func(ck chunk.Chunk) bool {
		select {
		case chunks <- ck:
			return true
		case <-ctx.Done():
			return false
		}
	}

	emit := func(ck chunk.Chunk) bool {
		if !live {
			return send(ck)
		}
		// live capture must not stall behind slow inference
		select {
		case chunks <- ck:
		default:
			n := c.dropped.Add(1)
			if n == 1 || n%10 == 0 {
				logger.Warn().Uint64("chunk", ck.Seq).Uint64("total_dropped", n).
					Msg("pipeline: inference falling behind, dropping chunk")
			}
			select {
			case results <- result{chunk: ck, dropped: true}:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				if partial := buffer.Flush(); partial != nil {
					send(*partial)
				}
				// a source that failed at end of stream reports it here
				if sourceErrs != nil {
					select {
					case err, ok := <-sourceErrs:
						if ok && err != nil {
							logger.Error().Err(err).Msg("pipeline: source failed")
							return err
						}
					default:
					}
				}
				return nil
			}
			for _, ck := range buffer.Push(normalizer.Process(frame)) {
				if !emit(ck) {
					return ctx.Err()
				}
			}

		case err, ok := <-sourceErrs:
			if !ok {
				sourceErrs = nil
				continue
			}
			if err != nil {
				logger.Error().Err(err).Msg("pipeline: source failed")
				if partial := buffer.Flush(); partial != nil {
					send(*partial)
				}
				return err
			}

		case <-stopCh:
			// drain: stop the source and keep reading until its frame
			// channel closes
			stopCh = nil
			logger.Info().Msg("pipeline: stop requested, draining")
			c.opts.Source.Stop()

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Coordinator) work(ctx context.Context, chunks <-chan chunk.Chunk, results chan<- result) {
	for ck := range chunks {
		spans, err := c.opts.Engine.Transcribe(ctx, ck.Samples)
		results <- result{chunk: ck, spans: spans, err: err}
	}
}

// sequence is the ordering barrier: results arrive in completion order and
// are held until every earlier chunk has been released.
func (c *Coordinator) sequence(results <-chan result, logger zerolog.Logger) (Summary, error) {
	var summary Summary
	pending := make(map[uint64]result)
	var next uint64

	for res := range results {
		pending[res.chunk.Seq] = res
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := c.release(ready, &summary, logger); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

// release writes one chunk's segments. A failed chunk is logged and
// skipped so one bad inference never ends the run.
func (c *Coordinator) release(res result, summary *Summary, logger zerolog.Logger) error {
	if res.dropped {
		return nil
	}
	summary.Chunks++

	start := res.chunk.StartSeconds()
	end := start + res.chunk.Duration()

	var segments []transcript.Segment
	if res.err != nil {
		summary.Failed++
		logger.Warn().Err(res.err).Uint64("chunk", res.chunk.Seq).
			Msg("pipeline: chunk transcription failed, continuing")
		if c.opts.FailureMarkers {
			segments = []transcript.Segment{{
				Chunk: res.chunk.Seq,
				Start: start,
				End:   end,
				Text:  failureMarkerText,
			}}
		}
	} else {
		for _, span := range res.spans {
			text := strings.TrimSpace(span.Text)
			if text == "" {
				continue
			}
			segments = append(segments, transcript.Segment{
				Chunk: res.chunk.Seq,
				Start: start + span.Start,
				End:   start + span.End,
				Text:  text,
			})
		}
		if c.opts.Assigner != nil && len(segments) > 0 {
			segments = c.opts.Assigner.Assign(segments, start, res.chunk.Samples)
		}
	}

	for _, seg := range segments {
		if err := c.opts.Writer.Append(seg); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
		summary.Segments++
	}
	if end > summary.Duration {
		summary.Duration = end
	}

	if c.opts.OnProgress != nil {
		c.opts.OnProgress(Progress{
			Seq:      res.chunk.Seq,
			Start:    start,
			End:      end,
			RMS:      audio.RMS(res.chunk.Samples),
			Segments: segments,
			Err:      res.err,
		})
	}
	return nil
}
