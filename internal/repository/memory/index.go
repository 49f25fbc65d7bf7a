// Package memory holds in-process stand-ins for the Valkey repositories,
// used by the memory database driver and by tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/kailas-cloud/docdedup/internal/domain"
	"github.com/kailas-cloud/docdedup/internal/domain/match"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

// Index is an exact brute-force cosine index over records.
type Index struct {
	mu           sync.RWMutex
	dim          int
	records      []domrec.Record
	vectors      [][]float32
	byID         map[string]int
	defaultLimit int
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dim int) *Index {
	return &Index{dim: dim, byID: make(map[string]int), defaultLimit: 20}
}

// WithDefaultLimit sets the page size used when List is called with limit <= 0.
func (ix *Index) WithDefaultLimit(n int) *Index {
	if n > 0 {
		ix.defaultLimit = n
	}
	return ix
}

// Dimensions returns the configured vector dimension.
func (ix *Index) Dimensions() int {
	return ix.dim
}

// Ping always succeeds; the index lives in process.
func (ix *Index) Ping(context.Context) error { return nil }

// EnsureIndex is a no-op; the dimension is fixed at construction.
func (ix *Index) EnsureIndex(context.Context) error {
	if ix.dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive", domain.ErrIndex)
	}
	return nil
}

// Query returns at most k records ordered by cosine similarity, best first.
// Equal scores keep insertion order.
func (ix *Index) Query(_ context.Context, vector []float32, k int) ([]match.Match, error) {
	if err := ix.checkDim(vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored struct {
		pos   int
		score float64
	}
	all := make([]scored, len(ix.records))
	for i := range ix.records {
		all[i] = scored{pos: i, score: cosine(ix.vectors[i], vector)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	if k > len(all) {
		k = len(all)
	}
	out := make([]match.Match, 0, k)
	for _, s := range all[:k] {
		rec := &ix.records[s.pos]
		out = append(out, match.New(rec.ID(), rec.Filename(), s.score))
	}
	return out, nil
}

// Insert appends a record; it is visible to the next Query.
func (ix *Index) Insert(_ context.Context, rec domrec.Record) error {
	vec := rec.Embedding()
	if err := ix.checkDim(vec); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.byID[rec.ID()]; ok {
		return fmt.Errorf("record %s: %w", rec.ID(), domain.ErrAlreadyExists)
	}
	ix.byID[rec.ID()] = len(ix.records)
	ix.records = append(ix.records, rec)
	ix.vectors = append(ix.vectors, vec)
	return nil
}

// Get returns a record by ID.
func (ix *Index) Get(_ context.Context, id string) (domrec.Record, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pos, ok := ix.byID[id]
	if !ok {
		return domrec.Record{}, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return ix.records[pos], nil
}

// Count returns the number of stored records.
func (ix *Index) Count(context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records), nil
}

// List pages through records in insertion order, without embeddings.
func (ix *Index) List(_ context.Context, sourceRef, cursor string, limit int) ([]domrec.Record, string, error) {
	if limit <= 0 {
		limit = ix.defaultLimit
	}
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", cursor, domain.ErrInvalidInput)
		}
		offset = n
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matched []*domrec.Record
	for i := range ix.records {
		if sourceRef == "" || ix.records[i].SourceReference() == sourceRef {
			matched = append(matched, &ix.records[i])
		}
	}
	if offset >= len(matched) {
		return nil, "", nil
	}

	end := min(offset+limit, len(matched))
	out := make([]domrec.Record, 0, end-offset)
	for _, r := range matched[offset:end] {
		out = append(out, domrec.Reconstruct(
			r.ID(), r.Filename(), r.SourceReference(), r.StorageLocation(),
			r.TextContent(), r.Fingerprint(), nil, r.UploadedAt(),
		))
	}

	var next string
	if end < len(matched) {
		next = strconv.Itoa(end)
	}
	return out, next, nil
}

func (ix *Index) checkDim(vector []float32) error {
	if len(vector) != ix.dim {
		return fmt.Errorf("%w: %w: got %d, want %d",
			domain.ErrIndex, domain.ErrVectorDimMismatch, len(vector), ix.dim)
	}
	return nil
}

// cosine returns the cosine similarity of a and b; zero vectors score 0.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
