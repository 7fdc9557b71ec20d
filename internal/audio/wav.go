package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// wavReader streams samples from a RIFF/WAVE file. PCM16 and IEEE float32
// payloads are supported, which covers what recorders around this tool
// actually produce; anything else is a decode error.
type wavReader struct {
	r          io.Reader
	format     uint16
	sampleRate int
	channels   int
	bits       int
	remaining  uint32 // bytes left in the data chunk
}

func newWAVReader(r io.Reader) (*wavReader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: read RIFF header: %v", ErrDecode, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a WAVE file", ErrDecode)
	}

	w := &wavReader{r: r}

	// Walk chunks until the data chunk; the fmt chunk must come first.
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: read chunk header: %v", ErrDecode, err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short", ErrDecode)
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("%w: read fmt chunk: %v", ErrDecode, err)
			}
			w.format = binary.LittleEndian.Uint16(buf[0:2])
			w.channels = int(binary.LittleEndian.Uint16(buf[2:4]))
			w.sampleRate = int(binary.LittleEndian.Uint32(buf[4:8]))
			w.bits = int(binary.LittleEndian.Uint16(buf[14:16]))

		case "data":
			if w.sampleRate == 0 {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrDecode)
			}
			if err := w.checkFormat(); err != nil {
				return nil, err
			}
			w.remaining = size
			return w, nil

		default:
			// Skip LIST, INFO and friends. Chunks are word aligned.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("%w: skip %s chunk: %v", ErrDecode, id, err)
			}
		}
	}
}

func (w *wavReader) checkFormat() error {
	switch {
	case w.format == wavFormatPCM && w.bits == 16:
	case w.format == wavFormatFloat && w.bits == 32:
	default:
		return fmt.Errorf("%w: unsupported WAV format %d with %d bits", ErrDecode, w.format, w.bits)
	}
	if w.channels <= 0 {
		return fmt.Errorf("%w: invalid channel count %d", ErrDecode, w.channels)
	}
	return nil
}

// ReadFrame fills dst with interleaved float32 samples and returns how many
// were produced. io.EOF signals a clean end of the data chunk.
func (w *wavReader) ReadFrame(dst []float32) (int, error) {
	if w.remaining == 0 {
		return 0, io.EOF
	}

	bytesPerSample := w.bits / 8
	want := len(dst) * bytesPerSample
	if uint32(want) > w.remaining {
		want = int(w.remaining)
	}
	// Never split a sample across reads.
	want -= want % bytesPerSample
	if want == 0 {
		return 0, io.EOF
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(w.r, buf)
	n -= n % bytesPerSample
	if n == 0 {
		if err != nil {
			return 0, fmt.Errorf("%w: read samples: %v", ErrDecode, err)
		}
		return 0, io.EOF
	}
	w.remaining -= uint32(n)

	count := n / bytesPerSample
	switch {
	case w.format == wavFormatPCM:
		for i := 0; i < count; i++ {
			s := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
			dst[i] = float32(s) / 32768.0
		}
	default: // IEEE float32
		for i := 0; i < count; i++ {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
		}
	}

	if err != nil && w.remaining > 0 {
		// Truncated data chunk: emit what we decoded, fail on the next call.
		w.remaining = 0
	}
	return count, nil
}

func (w *wavReader) SampleRate() int { return w.sampleRate }
func (w *wavReader) Channels() int   { return w.channels }
