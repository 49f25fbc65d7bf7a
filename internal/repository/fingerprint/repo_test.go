package fingerprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docdedup/internal/db"
	"github.com/kailas-cloud/docdedup/internal/domain"
)

// kvStore is a map-backed store honoring NX semantics.
type kvStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	failOn string
}

func newKV() *kvStore {
	return &kvStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *kvStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.failOn == "GET" {
		return nil, errors.New("boom")
	}
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(v), nil
}

func (s *kvStore) Set(_ context.Context, key string, value []byte) error {
	s.data[key] = string(value)
	delete(s.ttls, key)
	return nil
}

func (s *kvStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if s.failOn == "SET" {
		return false, errors.New("boom")
	}
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = string(value)
	s.ttls[key] = ttl
	return true, nil
}

func (s *kvStore) Del(_ context.Context, key string) error {
	delete(s.data, key)
	delete(s.ttls, key)
	return nil
}

func TestClaim_FirstWins(t *testing.T) {
	kv := newKV()
	r := New(kv).WithTTL(time.Minute)
	ctx := context.Background()

	if ok, err := r.Claim(ctx, "abc", "doc-1"); err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if ttl := kv.ttls["docdedup:fp:abc"]; ttl != time.Minute {
		t.Errorf("claim ttl = %v, want 1m", ttl)
	}
	if ok, err := r.Claim(ctx, "abc", "doc-2"); err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}

	holder, err := r.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if holder != "doc-1" {
		t.Errorf("holder = %q, want doc-1", holder)
	}
}

func TestConfirm_DropsExpiry(t *testing.T) {
	kv := newKV()
	r := New(kv)
	ctx := context.Background()

	if _, err := r.Claim(ctx, "abc", "doc-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if ttl := kv.ttls["docdedup:fp:abc"]; ttl != DefaultClaimTTL {
		t.Errorf("claim ttl = %v, want %v", ttl, DefaultClaimTTL)
	}

	if err := r.Confirm(ctx, "abc", "doc-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, hasTTL := kv.ttls["docdedup:fp:abc"]; hasTTL {
		t.Error("confirmed fingerprint must not expire")
	}
}

func TestRelease_AllowsReclaim(t *testing.T) {
	r := New(newKV())
	ctx := context.Background()

	if _, err := r.Claim(ctx, "abc", "doc-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := r.Release(ctx, "abc"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, err := r.Claim(ctx, "abc", "doc-2"); err != nil || !ok {
		t.Errorf("reclaim: ok=%v err=%v", ok, err)
	}
}

func TestLookup_Missing(t *testing.T) {
	_, err := New(newKV()).Lookup(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreErrors(t *testing.T) {
	kv := newKV()
	kv.failOn = "SET"
	if _, err := New(kv).Claim(context.Background(), "abc", "doc-1"); !errors.Is(err, domain.ErrIndex) {
		t.Errorf("Claim: expected ErrIndex, got %v", err)
	}

	kv.failOn = "GET"
	if _, err := New(kv).Lookup(context.Background(), "abc"); !errors.Is(err, domain.ErrIndex) {
		t.Errorf("Lookup: expected ErrIndex, got %v", err)
	}
}
