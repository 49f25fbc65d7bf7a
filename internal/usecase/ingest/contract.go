package ingest

import (
	"context"

	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
	"github.com/kailas-cloud/docdedup/internal/usecase/dedup"
)

// Detector runs the duplicate check for one upload.
type Detector interface {
	CheckAndBuildRecord(ctx context.Context, raw []byte, meta domrec.Metadata) (dedup.Decision, error)
}

// Index persists accepted records.
type Index interface {
	Insert(ctx context.Context, rec domrec.Record) error
	Get(ctx context.Context, id string) (domrec.Record, error)
}

// Fingerprints guards exact-text uniqueness across concurrent ingestions.
type Fingerprints interface {
	Claim(ctx context.Context, fp, holderID string) (bool, error)
	Confirm(ctx context.Context, fp, holderID string) error
	Lookup(ctx context.Context, fp string) (string, error)
	Release(ctx context.Context, fp string) error
}

// Blobs stores the uploaded file bytes.
type Blobs interface {
	Put(ctx context.Context, id string, data []byte) (string, error)
	Delete(ctx context.Context, location string) error
}
