package listing

import (
	"context"

	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

// Repository reads stored records.
type Repository interface {
	List(ctx context.Context, sourceRef, cursor string, limit int) (recs []domrec.Record, nextCursor string, err error)
	Get(ctx context.Context, id string) (domrec.Record, error)
	Count(ctx context.Context) (int, error)
}
