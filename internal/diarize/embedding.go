package diarize

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog/log"
	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
	"gonum.org/v1/gonum/floats"

	"github.com/scribelabs/scribe/internal/transcript"
)

// minEmbedSeconds is the shortest speech span worth embedding; anything
// shorter is usually noise and inherits the previous identity.
const minEmbedSeconds = 0.5

// EmbeddingAssigner labels segments by extracting a speaker embedding per
// speech span through sherpa-onnx and matching it against the identities
// already seen in this run: nearest centroid by cosine similarity, with a
// new identity whenever no centroid is close enough. Identities are stable
// within a run only.
type EmbeddingAssigner struct {
	extractor *sherpa.SpeakerEmbeddingExtractor
	threshold float32

	centroids [][]float32 // running mean embedding per identity, index = identity-1
	counts    []int
	last      int // identity given to the previous segment
}

func NewEmbeddingAssigner(config Config) (*EmbeddingAssigner, error) {
	if config.EmbeddingModelPath == "" {
		return nil, &ModelUnavailableError{
			Model:       "speaker embedding",
			Remediation: "set diarization.embedding_model in the config or run 'scribe models download' for a speaker model",
		}
	}
	if _, err := os.Stat(config.EmbeddingModelPath); err != nil {
		return nil, &ModelUnavailableError{
			Model:       config.EmbeddingModelPath,
			Remediation: "run 'scribe models download' to fetch the speaker embedding model",
			Err:         err,
		}
	}

	threads := config.Threads
	if threads <= 0 {
		threads = DefaultConfig().Threads
	}

	extractorConfig := sherpa.SpeakerEmbeddingExtractorConfig{
		Model:      config.EmbeddingModelPath,
		NumThreads: threads,
		Debug:      0,
		Provider:   "cpu",
	}
	extractor := sherpa.NewSpeakerEmbeddingExtractor(&extractorConfig)
	if extractor == nil {
		return nil, &ModelUnavailableError{
			Model:       config.EmbeddingModelPath,
			Remediation: "the model file exists but could not be loaded; re-download it with 'scribe models download'",
			Err:         fmt.Errorf("sherpa-onnx rejected the model"),
		}
	}

	threshold := config.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().SimilarityThreshold
	}

	log.Info().Str("model", config.EmbeddingModelPath).Msg("diarize: speaker embedding model loaded")

	return &EmbeddingAssigner{extractor: extractor, threshold: threshold}, nil
}

func (a *EmbeddingAssigner) Assign(segments []transcript.Segment, chunkStart float64, samples []float32) []transcript.Segment {
	for i := range segments {
		span := a.spanSamples(segments[i], chunkStart, samples)
		if float64(len(span)) < minEmbedSeconds*16000 {
			segments[i].Speaker = a.last
			continue
		}

		embedding := a.embed(span)
		if embedding == nil {
			segments[i].Speaker = a.last
			continue
		}

		identity := a.match(embedding)
		segments[i].Speaker = identity
		a.last = identity
	}
	return segments
}

func (a *EmbeddingAssigner) spanSamples(seg transcript.Segment, chunkStart float64, samples []float32) []float32 {
	start := int((seg.Start - chunkStart) * 16000)
	end := int((seg.End - chunkStart) * 16000)
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if start >= end {
		return nil
	}
	return samples[start:end]
}

func (a *EmbeddingAssigner) embed(span []float32) []float32 {
	stream := a.extractor.CreateStream()
	defer sherpa.DeleteOnlineStream(stream)

	stream.AcceptWaveform(16000, span)
	stream.InputFinished()

	if !a.extractor.IsReady(stream) {
		return nil
	}
	return a.extractor.Compute(stream)
}

// match returns the identity of the closest known centroid, creating a new
// identity when nothing is within the similarity threshold. Matched
// centroids are updated with a running mean so identities sharpen as the
// run progresses.
func (a *EmbeddingAssigner) match(embedding []float32) int {
	best := -1
	bestSim := float32(-1)
	for i, centroid := range a.centroids {
		sim := cosineSimilarity(embedding, centroid)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	if best >= 0 && bestSim >= a.threshold {
		a.updateCentroid(best, embedding)
		return best + 1
	}

	a.centroids = append(a.centroids, append([]float32(nil), embedding...))
	a.counts = append(a.counts, 1)
	log.Debug().Int("identity", len(a.centroids)).Float32("similarity", bestSim).
		Msg("diarize: new speaker identity")
	return len(a.centroids)
}

func (a *EmbeddingAssigner) updateCentroid(idx int, embedding []float32) {
	n := float32(a.counts[idx])
	centroid := a.centroids[idx]
	for i := range centroid {
		centroid[i] = (centroid[i]*n + embedding[i]) / (n + 1)
	}
	a.counts[idx]++
}

func (a *EmbeddingAssigner) Close() {
	if a.extractor != nil {
		sherpa.DeleteSpeakerEmbeddingExtractor(a.extractor)
		a.extractor = nil
	}
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	x := make([]float64, len(a))
	y := make([]float64, len(b))
	for i := range a {
		x[i] = float64(a[i])
		y[i] = float64(b[i])
	}
	normX := floats.Norm(x, 2)
	normY := floats.Norm(y, 2)
	if normX == 0 || normY == 0 {
		return 0
	}
	sim := floats.Dot(x, y) / (normX * normY)
	return float32(math.Max(-1, math.Min(1, sim)))
}
