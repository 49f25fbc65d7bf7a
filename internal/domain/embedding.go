package domain

import (
	"context"
	"fmt"
)

// Embedder turns normalized document text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CheckDimensions rejects an empty vector as a provider fault and a vector of the
// wrong length as an index fault. dim <= 0 skips the length check.
func (r EmbeddingResult) CheckDimensions(dim int) error {
	n := len(r.Embedding)
	if n == 0 {
		return fmt.Errorf("empty embedding: %w", ErrEmbeddingService)
	}
	if dim > 0 && n != dim {
		return fmt.Errorf("%w: %w: got %d, want %d", ErrIndex, ErrVectorDimMismatch, n, dim)
	}
	return nil
}
