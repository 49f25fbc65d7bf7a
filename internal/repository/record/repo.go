package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docdedup/internal/db"
	"github.com/kailas-cloud/docdedup/internal/domain"
	"github.com/kailas-cloud/docdedup/internal/domain/match"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

// store is the consumer interface for records (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, filter *db.TagFilter) (int, error)
}

// Repo is the Valkey-backed similarity index over document records.
type Repo struct {
	store        store
	dim          int
	hnswM        int
	hnswEF       int
	defaultLimit int
}

// New creates a record repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim, defaultLimit: 20}
}

// WithHNSW sets HNSW build parameters. Zero keeps the server defaults.
func (r *Repo) WithHNSW(m, efConstruction int) *Repo {
	r.hnswM = m
	r.hnswEF = efConstruction
	return r
}

// WithDefaultLimit sets the page size used when List is called with limit <= 0.
func (r *Repo) WithDefaultLimit(n int) *Repo {
	if n > 0 {
		r.defaultLimit = n
	}
	return r
}

// Dimensions returns the configured vector dimension.
func (r *Repo) Dimensions() int {
	return r.dim
}

// EnsureIndex creates the vector index when absent and pins its dimension.
// A stored dimension that differs from the configured one is fatal.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	raw, err := r.store.Get(ctx, dimKey)
	switch {
	case err == nil:
		stored, convErr := strconv.Atoi(string(raw))
		if convErr != nil {
			return fmt.Errorf("%w: corrupt dimension marker %q", domain.ErrIndex, raw)
		}
		if stored != r.dim {
			return fmt.Errorf("%w: %w: index holds %d-dim vectors, configured %d",
				domain.ErrIndex, domain.ErrVectorDimMismatch, stored, r.dim)
		}
	case db.IsNotFound(err):
	default:
		return fmt.Errorf("%w: read dimension marker: %w", domain.ErrIndex, err)
	}

	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("%w: probe index: %w", domain.ErrIndex, err)
	}
	if !exists {
		def, err := db.NewIndex(indexName).
			Prefix(docPrefix).
			Vector("$.embedding", fieldVector, db.VectorSpec{
				Dim:            r.dim,
				Distance:       db.DistanceCosine,
				M:              r.hnswM,
				EFConstruction: r.hnswEF,
			}).
			Tag("$.source_ref", fieldSourceRef).
			Build()
		if err != nil {
			return fmt.Errorf("%w: index definition: %w", domain.ErrIndex, err)
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("%w: create index: %w", domain.ErrIndex, err)
		}
	}

	if err := r.store.Set(ctx, dimKey, []byte(strconv.Itoa(r.dim))); err != nil {
		return fmt.Errorf("%w: write dimension marker: %w", domain.ErrIndex, err)
	}
	return nil
}

// Query returns at most k nearest records, best first.
func (r *Repo) Query(ctx context.Context, vector []float32, k int) ([]match.Match, error) {
	if err := r.checkDim(vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   indexName,
		VectorField: fieldVector,
		Vector:      vector,
		K:           k,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: knn search: %w", domain.ErrIndex, err)
	}
	if sr == nil {
		return nil, nil
	}

	matches := make([]match.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		if len(matches) == k {
			break
		}
		matches = append(matches, match.New(extractID(e.Key), filenameOf(e.Fields["$"]), e.Score))
	}
	return matches, nil
}

// Insert stores a record. It becomes visible to Query once the server indexes it.
func (r *Repo) Insert(ctx context.Context, rec domrec.Record) error {
	if err := r.checkDim(rec.Embedding()); err != nil {
		return err
	}

	data, err := json.Marshal(toDoc(rec))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	key := docKey(rec.ID())
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("%w: json.set %s: %w", domain.ErrIndex, key, err)
	}
	return nil
}

// Get returns a record by ID, including its embedding.
func (r *Repo) Get(ctx context.Context, id string) (domrec.Record, error) {
	key := docKey(id)
	raw, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return domrec.Record{}, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
		}
		return domrec.Record{}, fmt.Errorf("%w: json.get %s: %w", domain.ErrIndex, key, err)
	}
	return decodeDoc(key, string(raw), true)
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrIndex, err)
	}
	return n, nil
}

// List returns records without embeddings, optionally filtered by exact source reference.
// The cursor is an opaque offset; an empty next cursor means the last page.
func (r *Repo) List(ctx context.Context, sourceRef, cursor string, limit int) (
	[]domrec.Record, string, error,
) {
	if limit <= 0 {
		limit = r.defaultLimit
	}

	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", cursor, domain.ErrInvalidInput)
		}
		offset = parsed
	}

	q := &db.ListQuery{IndexName: indexName, Offset: offset, Limit: limit + 1}
	if sourceRef != "" {
		q.Filter = &db.TagFilter{Field: fieldSourceRef, Value: sourceRef}
	}

	result, err := r.store.SearchList(ctx, q)
	if err != nil {
		return nil, "", fmt.Errorf("%w: list: %w", domain.ErrIndex, err)
	}
	if result == nil || len(result.Entries) == 0 {
		return nil, "", nil
	}

	recs := make([]domrec.Record, 0, limit)
	for i, entry := range result.Entries {
		if i >= limit {
			break
		}
		rec, err := decodeDoc(entry.Key, entry.Fields["$"], false)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", domain.ErrIndex, err)
		}
		recs = append(recs, rec)
	}

	var next string
	if len(result.Entries) > limit || offset+limit < result.Total {
		next = strconv.Itoa(offset + limit)
	}
	return recs, next, nil
}

func (r *Repo) checkDim(vector []float32) error {
	if len(vector) != r.dim {
		return fmt.Errorf("%w: %w: got %d, want %d",
			domain.ErrIndex, domain.ErrVectorDimMismatch, len(vector), r.dim)
	}
	return nil
}
