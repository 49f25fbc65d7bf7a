package campaign

import (
	"context"

	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
)

// Repository stores campaigns.
type Repository interface {
	Create(ctx context.Context, c domcamp.Campaign) error
	List(ctx context.Context) ([]domcamp.Campaign, error)
}
