// Package extract converts uploaded document bytes into normalized plain text.
package extract

import (
	"bytes"
	"fmt"

	"github.com/kailas-cloud/docdedup/internal/domain"
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

var pdfMagic = []byte("%PDF-")

// Extractor is the text extraction stage of ingestion. It has no side effects.
type Extractor struct {
	parser   Parser
	maxPages int
}

// New creates an Extractor backed by the PDF parser.
func New() *Extractor {
	return NewWithParser(PDFParser{})
}

// NewWithParser creates an Extractor with a custom parser (used by tests).
func NewWithParser(p Parser) *Extractor {
	return &Extractor{parser: p}
}

// WithMaxPages limits how many pages are read. 0 means all pages.
func (e *Extractor) WithMaxPages(n int) *Extractor {
	if n > 0 {
		e.maxPages = n
	}
	return e
}

// Extract returns the normalized text of raw. Unparseable input and input
// without any text after normalization both fail with domain.ErrExtraction.
func (e *Extractor) Extract(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty document: %w", domain.ErrExtraction)
	}

	window := raw
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, pdfMagic) {
		return "", fmt.Errorf("missing pdf header: %w", domain.ErrExtraction)
	}

	text, err := e.parser.PlainText(raw, e.maxPages)
	if err != nil {
		return "", fmt.Errorf("parse document: %w: %w", domain.ErrExtraction, err)
	}

	normalized := Normalize(text)
	if normalized == "" {
		return "", fmt.Errorf("no text content after normalization: %w", domain.ErrExtraction)
	}
	return normalized, nil
}
