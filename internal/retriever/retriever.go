package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/internal/embedding"
	"github.com/abirzishan32/Tukhor-AI/internal/textproc"
	"github.com/abirzishan32/Tukhor-AI/internal/vectorindex"
	"github.com/abirzishan32/Tukhor-AI/models"
)

// RetrievedChunk is a chunk that survived the similarity threshold,
// carrying enough context to cite its source document.
type RetrievedChunk struct {
	ChunkID          uuid.UUID       `json:"chunk_id"`
	DocumentID       uuid.UUID       `json:"document_id"`
	DocumentTitle    string          `json:"document_title"`
	ChunkIndex       int             `json:"chunk_index"`
	Content          string          `json:"content"`
	Similarity       float64         `json:"similarity"`
	DocumentLanguage models.Language `json:"document_language"`
	Metadata         models.Metadata `json:"metadata,omitempty"`
}

// Result is the outcome of one retrieval pass. An empty Chunks slice is a
// valid outcome meaning the corpus holds nothing relevant enough.
type Result struct {
	Chunks        []RetrievedChunk
	QueryLanguage models.Language
	QueryVector   []float64
}

// MaxSimilarity returns the highest chunk similarity, or 0 when empty.
func (r Result) MaxSimilarity() float64 {
	var best float64
	for _, c := range r.Chunks {
		if c.Similarity > best {
			best = c.Similarity
		}
	}
	return best
}

// ChunkSource resolves index matches to full chunk rows.
type ChunkSource interface {
	ChunksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ChunkWithDocument, error)
}

// Options tune a single retrieval.
type Options struct {
	TopK        int
	Threshold   float64
	DocumentIDs []uuid.UUID
}

// Retriever turns a user query into scored context chunks: detect the
// query language, embed the query, rank against the index, and drop
// everything below the similarity threshold.
type Retriever struct {
	detector  *textproc.Detector
	embedder  embedding.Embedder
	index     vectorindex.Index
	source    ChunkSource
	topK      int
	threshold float64
	logger    *zap.Logger
}

// New creates a Retriever with the given default topK and threshold.
func New(detector *textproc.Detector, embedder embedding.Embedder, index vectorindex.Index, source ChunkSource, topK int, threshold float64, logger *zap.Logger) *Retriever {
	return &Retriever{
		detector:  detector,
		embedder:  embedder,
		index:     index,
		source:    source,
		topK:      topK,
		threshold: threshold,
		logger:    logger,
	}
}

// Retrieve runs one retrieval pass for query. Options fields left at zero
// fall back to the retriever defaults.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, fmt.Errorf("retriever: empty query")
	}

	lang := r.detector.Detect(query)

	topK := opts.TopK
	if topK <= 0 {
		topK = r.topK
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = r.threshold
	}

	vec, err := r.embedder.Encode(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("failed to embed query: %w", err)
	}

	var docFilter []string
	for _, id := range opts.DocumentIDs {
		docFilter = append(docFilter, id.String())
	}

	// Monolingual queries only search documents of the same language;
	// mixed queries search the whole corpus.
	langFilter := lang
	if langFilter == models.LanguageMixed {
		langFilter = ""
	}
	matches, err := r.index.Search(ctx, vec, topK, vectorindex.Filters{Language: langFilter, DocumentIDs: docFilter})
	if err != nil {
		return Result{}, fmt.Errorf("failed to search index: %w", err)
	}

	var ids []uuid.UUID
	scores := make(map[uuid.UUID]float64, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		chunkID, err := uuid.Parse(m.ChunkID)
		if err != nil {
			continue
		}
		ids = append(ids, chunkID)
		scores[chunkID] = m.Score
	}

	result := Result{QueryLanguage: lang, QueryVector: vec}
	if len(ids) == 0 {
		r.logger.Debug("retrieval found no chunks above threshold",
			zap.String("language", string(lang)),
			zap.Float64("threshold", threshold))
		return result, nil
	}

	rows, err := r.source.ChunksByIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load chunks: %w", err)
	}
	byID := make(map[uuid.UUID]models.ChunkWithDocument, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	// Preserve the index ranking; skip IDs the store no longer has.
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		result.Chunks = append(result.Chunks, RetrievedChunk{
			ChunkID:          row.ID,
			DocumentID:       row.DocumentID,
			DocumentTitle:    row.DocumentTitle,
			ChunkIndex:       row.ChunkIndex,
			Content:          row.Content,
			Similarity:       scores[id],
			DocumentLanguage: row.DocumentLanguage,
			Metadata:         row.Metadata,
		})
	}

	r.logger.Debug("retrieval complete",
		zap.String("language", string(lang)),
		zap.Int("chunks", len(result.Chunks)),
		zap.Float64("max_similarity", result.MaxSimilarity()))

	return result, nil
}
