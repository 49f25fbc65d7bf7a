package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docdedup/internal/db"
	"github.com/kailas-cloud/docdedup/internal/domain"
)

const (
	keyPrefix = domain.KeyPrefix + "blob:"
	scheme    = "valkey://"
)

// store is the consumer interface for raw file bytes (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Repo keeps uploaded PDF bytes next to the index.
type Repo struct {
	store store
}

// New creates a blob repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put stores data under id and returns its storage location.
func (r *Repo) Put(ctx context.Context, id string, data []byte) (string, error) {
	key := keyPrefix + id
	if err := r.store.Set(ctx, key, data); err != nil {
		return "", fmt.Errorf("put blob %s: %w", id, err)
	}
	return scheme + key, nil
}

// Get loads the bytes behind a location returned by Put.
func (r *Repo) Get(ctx context.Context, location string) ([]byte, error) {
	key, err := parseLocation(location)
	if err != nil {
		return nil, err
	}
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", location, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get blob %s: %w", location, err)
	}
	return data, nil
}

// Delete removes the bytes behind a location. Missing blobs are not an error.
func (r *Repo) Delete(ctx context.Context, location string) error {
	key, err := parseLocation(location)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete blob %s: %w", location, err)
	}
	return nil
}

func parseLocation(location string) (string, error) {
	key, ok := strings.CutPrefix(location, scheme)
	if !ok || !strings.HasPrefix(key, keyPrefix) {
		return "", fmt.Errorf("foreign blob location %q: %w", location, domain.ErrInvalidInput)
	}
	return key, nil
}
