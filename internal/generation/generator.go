package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrGeneratorNotFound is returned when no generator is registered
	// under the requested name.
	ErrGeneratorNotFound = errors.New("generator not found")

	// ErrGeneratorAlreadyRegistered is returned on duplicate registration.
	ErrGeneratorAlreadyRegistered = errors.New("generator already registered")
)

// Failure wraps a transient error from a generation backend. Callers may
// retry the call once.
type Failure struct {
	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("generation failure: %v", f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IsFailure reports whether err is a transient generation failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Generator produces an answer for an assembled prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Registry holds named generator instances so the active backend can be
// selected by configuration.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a generator under its own name.
func (r *Registry) Register(g Generator) error {
	if g == nil {
		return errors.New("generator cannot be nil")
	}
	name := g.Name()
	if name == "" {
		return errors.New("generator name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[name]; exists {
		return ErrGeneratorAlreadyRegistered
	}
	r.generators[name] = g
	return nil
}

// Get retrieves a generator by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.generators[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGeneratorNotFound, name)
	}
	return g, nil
}

// List returns all registered generator names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}
