package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyInput signals that a caller asked to embed empty or
// whitespace-only text. Empty input never reaches the model.
var ErrEmptyInput = errors.New("embedding: empty input")

// Failure wraps an error from the underlying embedding model call. Callers
// decide whether to retry.
type Failure struct {
	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("embedding failure: %v", f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IsFailure reports whether err is a transient embedding failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Embedder maps text to fixed-dimension vectors. Implementations must be
// deterministic for a given model version and keep a stable per-item
// correspondence in batch mode.
type Embedder interface {
	// Encode returns the embedding vector for text.
	Encode(ctx context.Context, text string) ([]float64, error)

	// EncodeBatch returns one vector per input text, in input order.
	EncodeBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension returns the fixed vector dimension D.
	Dimension() int
}
