package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/abirzishan32/Tukhor-AI/models"
)

var (
	// ErrDimensionMismatch signals an entry or query vector whose length
	// differs from the index dimension.
	ErrDimensionMismatch = errors.New("vectorindex: dimension mismatch")

	// ErrInvalidTopK signals a non-positive topK in a search request.
	ErrInvalidTopK = errors.New("vectorindex: topK must be positive")
)

// Entry is a chunk vector plus the attributes searches can filter on.
type Entry struct {
	ChunkID    string
	DocumentID string
	Language   models.Language
	Vector     []float64
}

// Filters restricts a search to matching entries. Zero values mean no
// restriction on that attribute.
type Filters struct {
	Language    models.Language
	DocumentIDs []string
}

// Match is a scored search hit. Score is cosine similarity clamped to
// [-1, 1].
type Match struct {
	ChunkID    string
	DocumentID string
	Language   models.Language
	Score      float64
}

// Index stores chunk vectors and answers nearest-neighbour queries by
// cosine similarity.
type Index interface {
	// Upsert inserts or replaces entries keyed by chunk ID. Replacing an
	// entry keeps its original insertion position.
	Upsert(ctx context.Context, entries []Entry) error

	// Search returns up to topK matches ordered by descending score. Ties
	// resolve by insertion order, so repeated searches over an unchanged
	// index return identical rankings.
	Search(ctx context.Context, query []float64, topK int, filters Filters) ([]Match, error)

	// DeleteDocument removes every entry belonging to the document. It is
	// atomic with respect to concurrent searches and a no-op for unknown
	// documents.
	DeleteDocument(ctx context.Context, documentID string) error

	// Size returns the number of entries currently indexed.
	Size() int
}

func validateVector(vec []float64, dimension int) error {
	if len(vec) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dimension)
	}
	return nil
}
