package evaluation

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/internal/embedding"
	"github.com/abirzishan32/Tukhor-AI/internal/retriever"
	"github.com/abirzishan32/Tukhor-AI/internal/vectorindex"
)

// QualityMetrics scores one answer along five axes, each in [0, 1].
// OverallScore is their unweighted mean.
type QualityMetrics struct {
	Groundedness        float64 `json:"groundedness"`
	Relevance           float64 `json:"relevance"`
	Completeness        float64 `json:"completeness"`
	LanguageConsistency float64 `json:"language_consistency"`
	SourceUtilization   float64 `json:"source_utilization"`
	OverallScore        float64 `json:"overall_score"`
}

// ScoringStrategy scores answers. Confidence is cheap and synchronous;
// Quality may call the embedding model and degrades to zeroed metrics
// rather than failing the response.
type ScoringStrategy interface {
	Confidence(chunks []retriever.RetrievedChunk, answer string) float64
	Quality(ctx context.Context, query, answer string, sources []string) QualityMetrics
}

// SimilarityStrategy scores answers with embedding cosine similarity plus
// lexical heuristics for the cheap submetrics.
type SimilarityStrategy struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewSimilarityStrategy creates the default scoring strategy.
func NewSimilarityStrategy(embedder embedding.Embedder, logger *zap.Logger) *SimilarityStrategy {
	return &SimilarityStrategy{embedder: embedder, logger: logger}
}

// Confidence estimates answer confidence from retrieval similarity, the
// number of supporting chunks, and answer length. Without supporting
// chunks the answer is ungrounded and confidence is 0.
func (s *SimilarityStrategy) Confidence(chunks []retriever.RetrievedChunk, answer string) float64 {
	if len(chunks) == 0 {
		return 0
	}

	var maxSimilarity float64
	for _, c := range chunks {
		if c.Similarity > maxSimilarity {
			maxSimilarity = c.Similarity
		}
	}

	chunkBonus := math.Min(float64(len(chunks))*0.1, 0.3)
	answerQuality := math.Min(float64(len(strings.Fields(answer)))/20, 1.0) * 0.1

	return clamp01(maxSimilarity + chunkBonus + answerQuality)
}

// Quality computes the full metric set. Embedding failures zero the
// affected metric instead of propagating, because evaluation is
// supplementary to answering.
func (s *SimilarityStrategy) Quality(ctx context.Context, query, answer string, sources []string) QualityMetrics {
	m := QualityMetrics{
		Groundedness:        s.Groundedness(ctx, answer, sources),
		Relevance:           s.Relevance(ctx, query, sources),
		Completeness:        Completeness(answer),
		LanguageConsistency: LanguageConsistency(query, answer),
		SourceUtilization:   SourceUtilization(answer, sources),
	}
	m.OverallScore = (m.Groundedness + m.Relevance + m.Completeness + m.LanguageConsistency + m.SourceUtilization) / 5
	return m
}

// Groundedness is the maximum cosine similarity between the answer and
// any source text. An answer with no sources scores 0.
func (s *SimilarityStrategy) Groundedness(ctx context.Context, answer string, sources []string) float64 {
	return s.maxOrMean(ctx, answer, sources, true)
}

// Relevance is the mean cosine similarity between the query and the
// retrieved source texts.
func (s *SimilarityStrategy) Relevance(ctx context.Context, query string, sources []string) float64 {
	return s.maxOrMean(ctx, query, sources, false)
}

func (s *SimilarityStrategy) maxOrMean(ctx context.Context, anchor string, texts []string, takeMax bool) float64 {
	if strings.TrimSpace(anchor) == "" || len(texts) == 0 {
		return 0
	}

	anchorVec, err := s.embedder.Encode(ctx, anchor)
	if err != nil {
		s.logger.Warn("evaluation embedding failed", zap.Error(err))
		return 0
	}
	vecs, err := s.embedder.EncodeBatch(ctx, texts)
	if err != nil {
		s.logger.Warn("evaluation batch embedding failed", zap.Error(err))
		return 0
	}

	var best, sum float64
	for _, vec := range vecs {
		sim := vectorindex.CosineSimilarity(anchorVec, vec)
		if sim > best {
			best = sim
		}
		sum += sim
	}
	if takeMax {
		return clamp01(best)
	}
	return clamp01(sum / float64(len(vecs)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
