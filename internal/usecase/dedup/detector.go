package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
	"github.com/kailas-cloud/docdedup/internal/domain/match"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

const (
	// DefaultThreshold is the similarity above which an upload is a duplicate.
	DefaultThreshold = 0.95
	// DefaultTopK is the number of neighbors inspected per check.
	DefaultTopK = 5
)

// Decision is the outcome of a duplicate check. Exactly one of Pending and Duplicate is set.
type Decision struct {
	Pending    *domrec.Pending
	Duplicate  *match.Match
	Candidates []match.Match
}

// IsDuplicate reports whether the upload matched a stored record.
func (d *Decision) IsDuplicate() bool { return d.Duplicate != nil }

// Detector decides whether an upload is a near-duplicate of a stored record.
// It never persists anything.
type Detector struct {
	extractor    Extractor
	embedder     Embedder
	index        Index
	threshold    float64
	topK         int
	dim          int
	queryTimeout time.Duration
}

// New creates a detector with the default threshold and neighbor count.
func New(extractor Extractor, embedder Embedder, index Index) *Detector {
	return &Detector{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
	}
}

// WithThreshold sets the duplicate threshold. Values outside (0,1) are ignored:
// exact copies score 1.0 and must always be duplicates.
func (d *Detector) WithThreshold(t float64) *Detector {
	if t > 0 && t < 1 {
		d.threshold = t
	}
	return d
}

// WithTopK sets how many neighbors are fetched per check.
func (d *Detector) WithTopK(k int) *Detector {
	if k > 0 {
		d.topK = k
	}
	return d
}

// WithDimensions enables the vector length check against the index dimension.
func (d *Detector) WithDimensions(dim int) *Detector {
	if dim > 0 {
		d.dim = dim
	}
	return d
}

// WithQueryTimeout bounds each similarity query.
func (d *Detector) WithQueryTimeout(timeout time.Duration) *Detector {
	if timeout > 0 {
		d.queryTimeout = timeout
	}
	return d
}

// Threshold returns the configured duplicate threshold.
func (d *Detector) Threshold() float64 { return d.threshold }

// CheckAndBuildRecord extracts, embeds and queries the index for raw.
// Returns a Duplicate decision for the best match strictly above the threshold,
// otherwise a Pending record ready for persistence.
func (d *Detector) CheckAndBuildRecord(ctx context.Context, raw []byte, meta domrec.Metadata) (Decision, error) {
	text, err := d.extractor.Extract(raw)
	if err != nil {
		return Decision{}, ensure(err, domain.ErrExtraction, "extract text")
	}

	res, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return Decision{}, ensure(err, domain.ErrEmbeddingService, "vectorize text")
	}
	if err := res.CheckDimensions(d.dim); err != nil {
		return Decision{}, fmt.Errorf("vectorize text: %w", err)
	}

	matches, err := d.query(ctx, res.Embedding)
	if err != nil {
		return Decision{}, ensure(err, domain.ErrIndex, "query index")
	}

	if best, ok := match.Best(matches, d.threshold); ok {
		return Decision{Duplicate: &best, Candidates: matches}, nil
	}

	pending := domrec.NewPending(meta, text, res.Embedding)
	return Decision{Pending: &pending, Candidates: matches}, nil
}

func (d *Detector) query(ctx context.Context, vector []float32) ([]match.Match, error) {
	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}
	matches, err := d.index.Query(ctx, vector, d.topK)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return nil, fmt.Errorf("%w: %w", err, ctx.Err())
	}
	return matches, err
}

// ensure wraps err with op and guarantees errors.Is(result, sentinel).
func ensure(err, sentinel error, op string) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel, err)
}
