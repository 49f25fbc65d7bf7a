package listing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docdedup/internal/domain"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

// Service serves read-only views over stored records.
type Service struct {
	repo            Repository
	defaultPageSize int
	maxPageSize     int
}

// New creates a listing service.
func New(repo Repository) *Service {
	return &Service{
		repo:            repo,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// List returns a page of records, optionally restricted to one source reference.
// Embeddings are not loaded.
func (s *Service) List(
	ctx context.Context, sourceRef, cursor string, limit int,
) ([]domrec.Record, string, error) {
	if cursor != "" {
		if off, err := strconv.Atoi(cursor); err != nil || off < 0 {
			return nil, "", fmt.Errorf("malformed cursor %q: %w", cursor, domain.ErrInvalidInput)
		}
	}

	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	recs, next, err := s.repo.List(ctx, sourceRef, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list records: %w", err)
	}
	return recs, next, nil
}

// Get returns a single record by ID.
func (s *Service) Get(ctx context.Context, id string) (domrec.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
