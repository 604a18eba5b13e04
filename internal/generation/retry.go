package generation

import (
	"context"

	"go.uber.org/zap"
)

// Retrying wraps a Generator and retries once on a transient failure.
// Permanent errors pass through untouched.
type Retrying struct {
	inner  Generator
	logger *zap.Logger
}

// NewRetrying wraps inner with single-retry behavior.
func NewRetrying(inner Generator, logger *zap.Logger) *Retrying {
	return &Retrying{inner: inner, logger: logger}
}

// Name returns the inner generator's name.
func (r *Retrying) Name() string {
	return r.inner.Name()
}

// Generate calls the inner generator, retrying exactly once when the first
// attempt fails transiently and the context is still live.
func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := r.inner.Generate(ctx, prompt)
	if err == nil || !IsFailure(err) || ctx.Err() != nil {
		return answer, err
	}

	r.logger.Warn("generation failed, retrying once",
		zap.String("generator", r.inner.Name()),
		zap.Error(err))

	return r.inner.Generate(ctx, prompt)
}
