package dedup

import (
	"context"

	"github.com/kailas-cloud/docdedup/internal/domain"
	"github.com/kailas-cloud/docdedup/internal/domain/match"
)

// Extractor turns uploaded bytes into normalized text.
type Extractor interface {
	Extract(raw []byte) (string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index answers nearest-neighbor queries over stored records.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]match.Match, error)
}
