// Package audio provides the sample sources (decoded files, live capture
// devices) and the normalization into the canonical 16 kHz mono stream.
package audio

import (
	"context"
	"errors"
)

// Sentinel error kinds for the fatal source failures. Wrapped errors carry
// the detail; callers test with errors.Is.
var (
	ErrSourceUnavailable = errors.New("audio source unavailable")
	ErrDecode            = errors.New("audio decode failed")
)

// Source abstracts a decoded file or a live capture device into a stream of
// sample frames at the source's native rate and channel count. Frames on
// the channel are interleaved when multi-channel. For file sources the
// frame channel closes at end of stream; live sources produce until Stop
// or context cancellation.
type Source interface {
	Start(ctx context.Context) (<-chan []float32, <-chan error, error)
	Stop()

	SampleRate() int
	Channels() int

	// Descriptor names the source in the transcript header, e.g. the file
	// path or the capture device name.
	Descriptor() string

	// Live reports whether this is an unbounded capture source.
	Live() bool
}
