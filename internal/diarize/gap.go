package diarize

import "github.com/scribelabs/scribe/internal/transcript"

// GapAssigner is the heuristic strategy: a silence gap at or above the
// threshold between consecutive segments signals a speaker change,
// rotating through a small fixed set of identities. It is deterministic
// and carries only the last identity and last segment end time across
// chunks. This is an acknowledged placeholder for embedding-based
// diarization; threshold and rotation size are configurable rather than
// baked in.
type GapAssigner struct {
	threshold   float64
	maxSpeakers int

	current int
	lastEnd float64
	started bool
}

func NewGapAssigner(config Config) *GapAssigner {
	threshold := config.GapThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().GapThreshold
	}
	maxSpeakers := config.MaxSpeakers
	if maxSpeakers < 2 {
		maxSpeakers = DefaultConfig().MaxSpeakers
	}
	return &GapAssigner{threshold: threshold, maxSpeakers: maxSpeakers}
}

func (a *GapAssigner) Assign(segments []transcript.Segment, chunkStart float64, samples []float32) []transcript.Segment {
	for i := range segments {
		if !a.started {
			a.current = 1
			a.started = true
		} else if segments[i].Start-a.lastEnd >= a.threshold {
			a.current = a.current%a.maxSpeakers + 1
		}
		segments[i].Speaker = a.current
		a.lastEnd = segments[i].End
	}
	return segments
}

func (a *GapAssigner) Close() {}
