package transcript

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Writer appends finalized segments to the transcript file. It is the sole
// owner of the file handle for the duration of a run. Every append is
// synced to disk before returning so an interrupted live session keeps
// everything written up to the last completed chunk.
type Writer struct {
	path     string
	file     *os.File
	appended int
}

func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript file %s: %w", path, err)
	}
	return &Writer{path: path, file: file}, nil
}

// Init writes the transcript header. Must be called exactly once, before
// the first Append.
func (w *Writer) Init(sourceDescriptor string) error {
	if _, err := fmt.Fprintf(w.file, "Meeting Minutes - Transcription\nSource: %s\n\n", sourceDescriptor); err != nil {
		return fmt.Errorf("write transcript header: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync transcript header: %w", err)
	}
	return nil
}

// Append writes one segment line and makes it durable before returning.
func (w *Writer) Append(seg Segment) error {
	if _, err := fmt.Fprintln(w.file, seg.Line()); err != nil {
		return fmt.Errorf("append segment: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync segment: %w", err)
	}
	w.appended++
	return nil
}

// Appended returns how many segment lines have been written.
func (w *Writer) Appended() int {
	return w.appended
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Close() error {
	log.Debug().Str("path", w.path).Int("segments", w.appended).Msg("writer: closing transcript")
	return w.file.Close()
}
