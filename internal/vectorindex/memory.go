package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MemoryIndex is an in-process cosine-similarity index. The chunk corpus
// behind a single knowledge base is small enough that a linear scan under a
// read lock beats the operational cost of an external vector store.
type MemoryIndex struct {
	dimension int
	logger    *zap.Logger

	mu      sync.RWMutex
	entries []indexedEntry
	byChunk map[string]int
	nextSeq uint64
}

type indexedEntry struct {
	Entry
	seq uint64
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dimension int, logger *zap.Logger) *MemoryIndex {
	return &MemoryIndex{
		dimension: dimension,
		logger:    logger,
		byChunk:   make(map[string]int),
	}
}

// Upsert inserts or replaces entries keyed by chunk ID.
func (m *MemoryIndex) Upsert(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := validateVector(e.Vector, m.dimension); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if pos, ok := m.byChunk[e.ChunkID]; ok {
			seq := m.entries[pos].seq
			m.entries[pos] = indexedEntry{Entry: e, seq: seq}
			continue
		}
		m.entries = append(m.entries, indexedEntry{Entry: e, seq: m.nextSeq})
		m.byChunk[e.ChunkID] = len(m.entries) - 1
		m.nextSeq++
	}

	m.logger.Debug("index upsert", zap.Int("count", len(entries)), zap.Int("size", len(m.entries)))
	return nil
}

// Search returns up to topK matches ordered by descending cosine
// similarity, ties broken by insertion order.
func (m *MemoryIndex) Search(_ context.Context, query []float64, topK int, filters Filters) ([]Match, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if err := validateVector(query, m.dimension); err != nil {
		return nil, err
	}

	docSet := map[string]struct{}{}
	for _, id := range filters.DocumentIDs {
		docSet[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		Match
		seq uint64
	}
	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if filters.Language != "" && e.Language != filters.Language {
			continue
		}
		if len(docSet) > 0 {
			if _, ok := docSet[e.DocumentID]; !ok {
				continue
			}
		}
		candidates = append(candidates, scored{
			Match: Match{
				ChunkID:    e.ChunkID,
				DocumentID: e.DocumentID,
				Language:   e.Language,
				Score:      CosineSimilarity(query, e.Vector),
			},
			seq: e.seq,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = c.Match
	}
	return matches, nil
}

// DeleteDocument removes every entry of the document in one write-locked
// pass.
func (m *MemoryIndex) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.DocumentID == documentID {
			delete(m.byChunk, e.ChunkID)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	for i, e := range m.entries {
		m.byChunk[e.ChunkID] = i
	}

	m.logger.Debug("index document removed", zap.String("document_id", documentID), zap.Int("size", len(m.entries)))
	return nil
}

// Size returns the number of entries currently indexed.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [-1, 1]. A zero vector on either side yields 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}
