// Package chunk accumulates a 16 kHz mono sample stream into fixed-duration
// chunks for transcription.
package chunk

// SampleRate is the canonical pipeline rate. Everything downstream of the
// normalizer works at 16 kHz mono.
const SampleRate = 16000

// Chunk owns a contiguous run of samples. Seq is assigned in capture order
// and never reused; StartOffset is the stream-relative position of the
// first sample.
type Chunk struct {
	Seq         uint64
	StartOffset int64
	Samples     []float32
}

// Duration returns the chunk length in seconds.
func (c Chunk) Duration() float64 {
	return float64(len(c.Samples)) / SampleRate
}

// StartSeconds returns the stream-relative start time in seconds.
func (c Chunk) StartSeconds() float64 {
	return float64(c.StartOffset) / SampleRate
}
