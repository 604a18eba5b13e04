package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("storage: object not found")

	// ErrInvalidKey is returned for empty keys or keys that escape the store.
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// ObjectStorage persists uploaded document originals. Keys are slash
// separated relative paths chosen by the caller.
type ObjectStorage interface {
	// Put stores the object, replacing any existing content under the key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under the key.
	Exists(ctx context.Context, key string) (bool, error)
}
