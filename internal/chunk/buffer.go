package chunk

import "fmt"

// Buffer cuts the incoming stream into chunks of exactly chunkSamples
// samples. The accumulator is only ever touched by the capture goroutine;
// ownership of emitted chunks transfers to the caller.
type Buffer struct {
	chunkSamples int
	accumulated  []float32
	nextSeq      uint64
	emitted      int64 // samples handed out so far, start offset of the next chunk
}

// NewBuffer creates a buffer emitting chunks of the given duration.
func NewBuffer(chunkSeconds float64) (*Buffer, error) {
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("chunk duration must be > 0, got %v", chunkSeconds)
	}
	n := int(chunkSeconds * SampleRate)
	if n == 0 {
		n = 1
	}
	return &Buffer{
		chunkSamples: n,
		accumulated:  make([]float32, 0, n),
	}, nil
}

// ChunkSamples returns the configured full chunk size in samples.
func (b *Buffer) ChunkSamples() int {
	return b.chunkSamples
}

// Push appends samples and returns every full chunk that became available,
// in order. The remainder stays buffered for the next Push or Flush.
func (b *Buffer) Push(samples []float32) []Chunk {
	b.accumulated = append(b.accumulated, samples...)

	var chunks []Chunk
	for len(b.accumulated) >= b.chunkSamples {
		chunks = append(chunks, b.cut(b.chunkSamples))
	}
	return chunks
}

// Flush emits whatever remains as a final, possibly shorter chunk.
// Returns nil when the accumulator is empty.
func (b *Buffer) Flush() *Chunk {
	if len(b.accumulated) == 0 {
		return nil
	}
	c := b.cut(len(b.accumulated))
	return &c
}

// Pending returns the number of buffered samples not yet emitted.
func (b *Buffer) Pending() int {
	return len(b.accumulated)
}

func (b *Buffer) cut(n int) Chunk {
	samples := make([]float32, n)
	copy(samples, b.accumulated[:n])
	b.accumulated = b.accumulated[:copy(b.accumulated, b.accumulated[n:])]

	c := Chunk{
		Seq:         b.nextSeq,
		StartOffset: b.emitted,
		Samples:     samples,
	}
	b.nextSeq++
	b.emitted += int64(n)
	return c
}
