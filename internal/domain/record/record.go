package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
)

// Metadata is the caller-supplied bundle accompanying an upload.
type Metadata struct {
	Filename        string
	SourceReference string
}

// Validate checks the metadata. SourceReference is opaque but required.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.SourceReference) == "" {
		return fmt.Errorf("source reference is required: %w", domain.ErrInvalidInput)
	}
	return nil
}

// Pending is a record that passed the duplicate check and awaits persistence.
type Pending struct {
	Metadata    Metadata
	Text        string
	Fingerprint string
	Vector      []float32
}

// NewPending builds a pending record and computes its content fingerprint.
func NewPending(meta Metadata, text string, vector []float32) Pending {
	return Pending{
		Metadata:    meta,
		Text:        text,
		Fingerprint: Fingerprint(text),
		Vector:      vector,
	}
}

// Fingerprint returns the hex SHA-256 of normalized text.
func Fingerprint(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Record is an accepted, stored document (immutable value object).
type Record struct {
	id              string
	filename        string
	sourceReference string
	storageLocation string
	textContent     string
	fingerprint     string
	embedding       []float32
	uploadedAt      time.Time
}

// New finalizes a pending record with its persistence-time identity.
func New(p Pending, id, storageLocation string, uploadedAt time.Time) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	if err := p.Metadata.Validate(); err != nil {
		return Record{}, err
	}
	if p.Text == "" {
		return Record{}, fmt.Errorf("record text is empty: %w", domain.ErrInvalidInput)
	}
	if len(p.Vector) == 0 {
		return Record{}, fmt.Errorf("record embedding is empty: %w", domain.ErrInvalidInput)
	}

	fp := p.Fingerprint
	if fp == "" {
		fp = Fingerprint(p.Text)
	}

	return Record{
		id:              id,
		filename:        p.Metadata.Filename,
		sourceReference: p.Metadata.SourceReference,
		storageLocation: storageLocation,
		textContent:     p.Text,
		fingerprint:     fp,
		embedding:       cloneVector(p.Vector),
		uploadedAt:      uploadedAt.UTC(),
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
// The embedding is copied; a nil embedding stays nil.
func Reconstruct(
	id, filename, sourceReference, storageLocation, textContent, fingerprint string,
	embedding []float32, uploadedAt time.Time,
) Record {
	return Record{
		id: id, filename: filename, sourceReference: sourceReference,
		storageLocation: storageLocation, textContent: textContent, fingerprint: fingerprint,
		embedding: cloneVector(embedding), uploadedAt: uploadedAt,
	}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Filename returns the original submitted filename (may be empty).
func (r *Record) Filename() string { return r.filename }

// SourceReference returns the opaque source/tenant tag.
func (r *Record) SourceReference() string { return r.sourceReference }

// StorageLocation returns the reference to the stored file bytes.
func (r *Record) StorageLocation() string { return r.storageLocation }

// TextContent returns the normalized extracted text.
func (r *Record) TextContent() string { return r.textContent }

// Fingerprint returns the content hash of TextContent.
func (r *Record) Fingerprint() string { return r.fingerprint }

// Embedding returns a copy of the embedding vector, nil when it was not loaded.
func (r *Record) Embedding() []float32 { return cloneVector(r.embedding) }

// UploadedAt returns the persistence timestamp.
func (r *Record) UploadedAt() time.Time { return r.uploadedAt }

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
