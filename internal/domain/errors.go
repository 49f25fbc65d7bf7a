package domain

import "errors"

var (
	// ErrExtraction signals an unparseable upload or one with no text after normalization.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbeddingService signals an embedding provider failure (network, auth, bad response).
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrIndex signals a similarity index failure on query or insert.
	ErrIndex = errors.New("similarity index error")
	// ErrVectorDimMismatch signals a vector whose length differs from the index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidInput signals missing or malformed request metadata.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
