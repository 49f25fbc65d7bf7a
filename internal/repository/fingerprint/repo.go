package fingerprint

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docdedup/internal/db"
	"github.com/kailas-cloud/docdedup/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "fp:"

// DefaultClaimTTL bounds how long an unconfirmed claim blocks identical uploads.
const DefaultClaimTTL = 5 * time.Minute

// store is the consumer interface for fingerprint keys (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// Repo maps content fingerprints to the record that owns them.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a fingerprint repository.
func New(s store) *Repo {
	return &Repo{store: s, ttl: DefaultClaimTTL}
}

// WithTTL sets the lifetime of unconfirmed claims.
func (r *Repo) WithTTL(d time.Duration) *Repo {
	if d > 0 {
		r.ttl = d
	}
	return r
}

// Claim reserves fp for holderID. False means another holder already owns it.
func (r *Repo) Claim(ctx context.Context, fp, holderID string) (bool, error) {
	ok, err := r.store.SetNX(ctx, key(fp), []byte(holderID), r.ttl)
	if err != nil {
		return false, fmt.Errorf("%w: claim fingerprint: %w", domain.ErrIndex, err)
	}
	return ok, nil
}

// Confirm makes a claim permanent once its record is stored.
func (r *Repo) Confirm(ctx context.Context, fp, holderID string) error {
	if err := r.store.Set(ctx, key(fp), []byte(holderID)); err != nil {
		return fmt.Errorf("%w: confirm fingerprint: %w", domain.ErrIndex, err)
	}
	return nil
}

// Lookup returns the holder of fp.
func (r *Repo) Lookup(ctx context.Context, fp string) (string, error) {
	raw, err := r.store.Get(ctx, key(fp))
	if err != nil {
		if db.IsNotFound(err) {
			return "", fmt.Errorf("fingerprint %s: %w", fp, domain.ErrNotFound)
		}
		return "", fmt.Errorf("%w: lookup fingerprint: %w", domain.ErrIndex, err)
	}
	return string(raw), nil
}

// Release drops a claim after a failed ingestion.
func (r *Repo) Release(ctx context.Context, fp string) error {
	if err := r.store.Del(ctx, key(fp)); err != nil {
		return fmt.Errorf("%w: release fingerprint: %w", domain.ErrIndex, err)
	}
	return nil
}

func key(fp string) string {
	return keyPrefix + fp
}
