package transcript

import (
	"fmt"
	"strings"
)

// Segment is one timestamped span of transcribed text. Start and End are
// seconds from the beginning of the stream. Speaker is 0 while unassigned;
// assigned identities start at 1 and are only stable within a single run.
type Segment struct {
	Chunk   uint64
	Start   float64
	End     float64
	Text    string
	Speaker int
}

// Line renders the segment in the transcript file format:
// [MM:SS - MM:SS] Speaker N: text
func (s Segment) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s - %s] ", Clock(s.Start), Clock(s.End))
	if s.Speaker > 0 {
		fmt.Fprintf(&b, "Speaker %d: ", s.Speaker)
	}
	b.WriteString(strings.TrimSpace(s.Text))
	return b.String()
}

// Clock renders seconds as zero-padded MM:SS. Minutes keep growing past
// 59, matching the elapsed-time style of the transcript format.
func Clock(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
