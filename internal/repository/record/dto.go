package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

const (
	docPrefix = domain.KeyPrefix + "doc:"
	indexName = docPrefix + "idx"
	// dimKey records the vector dimension the index was created with.
	dimKey = domain.KeyPrefix + "meta:dim"

	fieldVector    = "vector"
	fieldSourceRef = "source_ref"
)

// recordDoc is the JSON document stored under docdedup:doc:<id>.
type recordDoc struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	SourceRef       string    `json:"source_ref"`
	StorageLocation string    `json:"storage_location"`
	TextContent     string    `json:"text_content"`
	Fingerprint     string    `json:"fingerprint"`
	Embedding       []float32 `json:"embedding,omitempty"`
	UploadedAt      string    `json:"uploaded_at"`
}

func docKey(id string) string {
	return docPrefix + id
}

func extractID(key string) string {
	return strings.TrimPrefix(key, docPrefix)
}

func toDoc(rec domrec.Record) recordDoc {
	return recordDoc{
		ID:              rec.ID(),
		Filename:        rec.Filename(),
		SourceRef:       rec.SourceReference(),
		StorageLocation: rec.StorageLocation(),
		TextContent:     rec.TextContent(),
		Fingerprint:     rec.Fingerprint(),
		Embedding:       rec.Embedding(),
		UploadedAt:      rec.UploadedAt().UTC().Format(time.RFC3339Nano),
	}
}

// decodeDoc parses a stored document. withEmbedding=false drops the vector,
// which listing never exposes.
func decodeDoc(key, raw string, withEmbedding bool) (domrec.Record, error) {
	var d recordDoc
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return domrec.Record{}, fmt.Errorf("decode %s: %w", key, err)
	}

	id := d.ID
	if id == "" {
		id = extractID(key)
	}

	var uploadedAt time.Time
	if d.UploadedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, d.UploadedAt)
		if err != nil {
			return domrec.Record{}, fmt.Errorf("decode %s uploaded_at: %w", key, err)
		}
		uploadedAt = t
	}

	var emb []float32
	if withEmbedding {
		emb = d.Embedding
	}

	return domrec.Reconstruct(
		id, d.Filename, d.SourceRef, d.StorageLocation,
		d.TextContent, d.Fingerprint, emb, uploadedAt,
	), nil
}

// filenameOf extracts only the filename from a KNN hit without decoding the vector.
func filenameOf(raw string) string {
	var d struct {
		Filename string `json:"filename"`
	}
	if json.Unmarshal([]byte(raw), &d) != nil {
		return ""
	}
	return d.Filename
}
