package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/internal/retriever"
)

// axisEmbedder assigns each known text a fixed vector; unknown texts get
// an orthogonal one.
type axisEmbedder struct {
	vectors map[string][]float64
	fail    bool
}

func (e *axisEmbedder) Encode(_ context.Context, text string) ([]float64, error) {
	if e.fail {
		return nil, errors.New("model offline")
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return []float64{0, 0, 1}, nil
}

func (e *axisEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		vec, err := e.Encode(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *axisEmbedder) Dimension() int { return 3 }

func chunksWithSimilarity(sims ...float64) []retriever.RetrievedChunk {
	chunks := make([]retriever.RetrievedChunk, len(sims))
	for i, s := range sims {
		chunks[i] = retriever.RetrievedChunk{Similarity: s}
	}
	return chunks
}

func TestConfidence_NoChunksIsZero(t *testing.T) {
	s := NewSimilarityStrategy(&axisEmbedder{}, zap.NewNop())
	assert.Equal(t, 0.0, s.Confidence(nil, "a long and detailed answer"))
}

func TestConfidence_Formula(t *testing.T) {
	s := NewSimilarityStrategy(&axisEmbedder{}, zap.NewNop())

	// maxSim 0.6 + 2 chunks bonus 0.2 + 10 words quality 0.05.
	answer := strings.Repeat("word ", 10)
	got := s.Confidence(chunksWithSimilarity(0.6, 0.4), answer)
	assert.InDelta(t, 0.85, got, 1e-9)
}

func TestConfidence_ChunkBonusCapped(t *testing.T) {
	s := NewSimilarityStrategy(&axisEmbedder{}, zap.NewNop())

	// 5 chunks cap the bonus at 0.3; 40 words cap quality at 0.1.
	answer := strings.Repeat("word ", 40)
	got := s.Confidence(chunksWithSimilarity(0.5, 0.1, 0.1, 0.1, 0.1), answer)
	assert.InDelta(t, 0.9, got, 1e-9)
}

func TestConfidence_ClampedToOne(t *testing.T) {
	s := NewSimilarityStrategy(&axisEmbedder{}, zap.NewNop())

	answer := strings.Repeat("word ", 40)
	got := s.Confidence(chunksWithSimilarity(0.95, 0.9, 0.9, 0.9), answer)
	assert.Equal(t, 1.0, got)
}

func TestGroundednessAndRelevance(t *testing.T) {
	embedder := &axisEmbedder{vectors: map[string][]float64{
		"the answer": {1, 0, 0},
		"the query":  {1, 0, 0},
		"source a":   {1, 0, 0},
		"source b":   {0, 1, 0},
	}}
	s := NewSimilarityStrategy(embedder, zap.NewNop())

	sources := []string{"source a", "source b"}
	assert.InDelta(t, 1.0, s.Groundedness(context.Background(), "the answer", sources), 1e-9)
	assert.InDelta(t, 0.5, s.Relevance(context.Background(), "the query", sources), 1e-9)
}

func TestGroundedness_EdgeCases(t *testing.T) {
	s := NewSimilarityStrategy(&axisEmbedder{}, zap.NewNop())

	assert.Equal(t, 0.0, s.Groundedness(context.Background(), "", []string{"source"}))
	assert.Equal(t, 0.0, s.Groundedness(context.Background(), "answer", nil))

	failing := NewSimilarityStrategy(&axisEmbedder{fail: true}, zap.NewNop())
	assert.Equal(t, 0.0, failing.Groundedness(context.Background(), "answer", []string{"source"}))
}

func TestQuality_OverallIsMean(t *testing.T) {
	embedder := &axisEmbedder{vectors: map[string][]float64{
		"q": {1, 0, 0},
		"a": {1, 0, 0},
		"s": {1, 0, 0},
	}}
	strat := NewSimilarityStrategy(embedder, zap.NewNop())

	m := strat.Quality(context.Background(), "q", "a", []string{"s"})
	want := (m.Groundedness + m.Relevance + m.Completeness + m.LanguageConsistency + m.SourceUtilization) / 5
	assert.InDelta(t, want, m.OverallScore, 1e-9)
}
