package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/rs/zerolog/log"
)

// fileFrameSamples is the frame size handed downstream, small enough to
// keep the chunk buffer's latency accounting fine-grained.
const fileFrameSamples = 4096

// frameReader is the common decode surface for the supported containers.
type frameReader interface {
	ReadFrame(dst []float32) (int, error)
	SampleRate() int
	Channels() int
}

// FileSource streams a decoded audio file. WAV is decoded natively, MP3
// through go-mp3. The file handle is exclusively owned by the source and
// released on every exit path.
type FileSource struct {
	path string

	file   *os.File
	reader frameReader

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OpenFile probes and opens the file, failing fast before the pipeline
// spins up: a missing file is ErrSourceUnavailable, an unreadable payload
// is ErrDecode.
func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, path, err)
	}

	var reader frameReader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		reader, err = newWAVReader(file)
	case ".mp3":
		reader, err = newMP3Reader(file)
	default:
		err = fmt.Errorf("%w: unsupported file extension %q", ErrDecode, filepath.Ext(path))
	}
	if err != nil {
		file.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Int("rate", reader.SampleRate()).Int("channels", reader.Channels()).
		Msg("audio: opened file source")

	return &FileSource{path: path, file: file, reader: reader}, nil
}

func (s *FileSource) SampleRate() int    { return s.reader.SampleRate() }
func (s *FileSource) Channels() int      { return s.reader.Channels() }
func (s *FileSource) Descriptor() string { return s.path }
func (s *FileSource) Live() bool         { return false }

func (s *FileSource) Start(ctx context.Context) (<-chan []float32, <-chan error, error) {
	readCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	frameCh := make(chan []float32, 4)
	errCh := make(chan error, 1)

	s.wg.Add(1)
	go func() {
		defer func() {
			close(frameCh)
			close(errCh)
			s.file.Close()
			s.wg.Done()
		}()

		for {
			frame := make([]float32, fileFrameSamples*s.reader.Channels())
			n, err := s.reader.ReadFrame(frame)
			if n > 0 {
				select {
				case frameCh <- frame[:n]:
				case <-readCtx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					errCh <- err
				}
				return
			}

			select {
			case <-readCtx.Done():
				return
			default:
			}
		}
	}()

	return frameCh, errCh, nil
}

func (s *FileSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// mp3Reader adapts go-mp3's 16-bit stereo PCM stream to frameReader.
// go-mp3 always decodes to two interleaved channels.
type mp3Reader struct {
	decoder *mp3.Decoder
}

func newMP3Reader(r io.Reader) (*mp3Reader, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3 decoder: %v", ErrDecode, err)
	}
	return &mp3Reader{decoder: decoder}, nil
}

func (r *mp3Reader) SampleRate() int { return r.decoder.SampleRate() }
func (r *mp3Reader) Channels() int   { return 2 }

func (r *mp3Reader) ReadFrame(dst []float32) (int, error) {
	buf := make([]byte, len(dst)*2)
	n, err := r.decoder.Read(buf)
	n -= n % 4 // whole stereo sample pairs only
	for i := 0; i < n/2; i++ {
		s := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		dst[i] = float32(s) / 32768.0
	}
	if err != nil && err != io.EOF {
		return n / 2, fmt.Errorf("%w: mp3 read: %v", ErrDecode, err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n / 2, nil
}
