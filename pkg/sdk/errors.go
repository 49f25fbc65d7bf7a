package docdedup

import (
	"fmt"

	"github.com/kailas-cloud/docdedup/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput     = domain.ErrInvalidInput
	ErrExtraction       = domain.ErrExtraction
	ErrEmbeddingService = domain.ErrEmbeddingService
	ErrIndex            = domain.ErrIndex
	ErrNotFound         = domain.ErrNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrRateLimited      = domain.ErrRateLimited
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("docdedup: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("docdedup: http %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the response error code onto a sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "bad_request", "validation_failed", "payload_too_large":
		return ErrInvalidInput
	case "extraction_failed":
		return ErrExtraction
	case "embedding_provider_error":
		return ErrEmbeddingService
	case "index_error":
		return ErrIndex
	case "not_found":
		return ErrNotFound
	case "already_exists":
		return ErrAlreadyExists
	case "rate_limited":
		return ErrRateLimited
	default:
		return nil
	}
}
