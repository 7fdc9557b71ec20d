package audio

import "github.com/scribelabs/scribe/internal/chunk"

// Normalizer converts frames at the source rate/channel count into the
// canonical 16 kHz mono format. Downmix is channel averaging; rate
// conversion is linear interpolation. It keeps the tail of the previous
// call as filter state so a continuous stream resamples without seams and
// with at most one frame of added latency.
type Normalizer struct {
	rate     int
	channels int

	carry []float32 // unconsumed mono input samples
	pos   float64   // fractional read position within carry+next input
}

func NewNormalizer(rate, channels int) *Normalizer {
	return &Normalizer{rate: rate, channels: channels}
}

// Process returns the 16 kHz mono samples for one input frame. The input
// slice is not retained. A source already at 16 kHz mono takes the copy
// path rather than being skipped, so latency accounting stays uniform.
func (n *Normalizer) Process(frame []float32) []float32 {
	mono := n.downmix(frame)

	if n.rate == chunk.SampleRate {
		out := make([]float32, len(mono))
		copy(out, mono)
		return out
	}

	buf := append(n.carry, mono...)
	step := float64(n.rate) / float64(chunk.SampleRate)

	var out []float32
	pos := n.pos
	for int(pos)+1 < len(buf) {
		i := int(pos)
		frac := float32(pos - float64(i))
		out = append(out, buf[i]*(1-frac)+buf[i+1]*frac)
		pos += step
	}

	// Keep the samples the next interpolation window still needs.
	keep := int(pos)
	if keep > len(buf) {
		keep = len(buf)
	}
	n.carry = append(n.carry[:0], buf[keep:]...)
	n.pos = pos - float64(keep)

	return out
}

func (n *Normalizer) downmix(frame []float32) []float32 {
	if n.channels <= 1 {
		return frame
	}
	mono := make([]float32, len(frame)/n.channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < n.channels; ch++ {
			sum += frame[i*n.channels+ch]
		}
		mono[i] = sum / float32(n.channels)
	}
	return mono
}
