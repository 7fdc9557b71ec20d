package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/scribelabs/scribe/internal/pipeline"
	"github.com/scribelabs/scribe/internal/transcript"
)

const meterWidth = 10

// LiveDisplay renders released chunks to the terminal during a live
// session: an input level meter, the chunk's time range, and its
// transcript lines as they are committed to the file.
type LiveDisplay struct {
	out io.Writer
}

func NewLiveDisplay() *LiveDisplay {
	return &LiveDisplay{out: os.Stdout}
}

// Banner prints the session header before capture starts.
func (d *LiveDisplay) Banner(device, outputPath string) {
	fmt.Fprintln(d.out, Logo())
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, StyleMuted.Render("Recording from "+device))
	fmt.Fprintln(d.out, StyleMuted.Render("Writing to "+outputPath))
	fmt.Fprintln(d.out, StyleSubtle.Render("Press Enter or Ctrl+C to stop"))
	fmt.Fprintln(d.out)
}

// Render prints one released chunk.
func (d *LiveDisplay) Render(p pipeline.Progress) {
	meter := StyleSuccess.Render(levelMeter(p.RMS, meterWidth))
	window := StyleTimestamp.Render(fmt.Sprintf("[%s - %s]", transcript.Clock(p.Start), transcript.Clock(p.End)))

	if p.Err != nil {
		fmt.Fprintf(d.out, "%s %s %s\n", meter, window, StyleWarning.Render("(chunk failed, skipped)"))
		return
	}
	if len(p.Segments) == 0 {
		fmt.Fprintf(d.out, "%s %s %s\n", meter, window, StyleSubtle.Render("(silence)"))
		return
	}
	for _, seg := range p.Segments {
		text := seg.Text
		if seg.Speaker > 0 {
			text = StyleSpeaker.Render(fmt.Sprintf("Speaker %d: ", seg.Speaker)) + text
		}
		fmt.Fprintf(d.out, "%s %s %s\n", meter, window, text)
	}
}

// Done prints the end-of-session summary.
func (d *LiveDisplay) Done(summary pipeline.Summary, outputPath string) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, StyleSuccess.Render(fmt.Sprintf("Transcript saved to %s", outputPath)))
	line := fmt.Sprintf("%d chunks, %d lines, %s of audio",
		summary.Chunks, summary.Segments, transcript.Clock(summary.Duration))
	if summary.Failed > 0 {
		line += fmt.Sprintf(", %d failed", summary.Failed)
	}
	if summary.Dropped > 0 {
		line += fmt.Sprintf(", %d dropped", summary.Dropped)
	}
	fmt.Fprintln(d.out, StyleMuted.Render(line))
}

// levelMeter turns an RMS level into a fixed-width bar. Speech RMS rarely
// exceeds 0.25, so the scale saturates well below full amplitude.
func levelMeter(rms float64, width int) string {
	filled := int(rms * 4 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

