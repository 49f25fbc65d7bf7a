package chi

import (
	"context"

	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
	campaignuc "github.com/kailas-cloud/docdedup/internal/usecase/campaign"
	healthuc "github.com/kailas-cloud/docdedup/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docdedup/internal/usecase/ingest"
)

// Ingester runs the upload pipeline.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte, meta domrec.Metadata) (ingestuc.Result, error)
}

// RecordReader serves stored records.
type RecordReader interface {
	List(ctx context.Context, sourceRef, cursor string, limit int) ([]domrec.Record, string, error)
	Get(ctx context.Context, id string) (domrec.Record, error)
}

// CampaignManager creates and lists campaigns.
type CampaignManager interface {
	Create(ctx context.Context, in campaignuc.CreateInput) (domcamp.Campaign, error)
	List(ctx context.Context) ([]domcamp.Campaign, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
