package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
)

func TestFingerprints(t *testing.T) {
	f := NewFingerprints()
	ctx := context.Background()

	if ok, err := f.Claim(ctx, "fp", "a"); err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if ok, err := f.Claim(ctx, "fp", "b"); err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}

	h, err := f.Lookup(ctx, "fp")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if h != "a" {
		t.Errorf("holder = %q, want a", h)
	}

	if err := f.Release(ctx, "fp"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := f.Lookup(ctx, "fp"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after release, got %v", err)
	}
}

func TestBlobs(t *testing.T) {
	b := NewBlobs()
	ctx := context.Background()

	src := []byte("%PDF-1.7")
	loc, err := b.Put(ctx, "id", src)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	src[0] = 'X'

	data, err := b.Get(ctx, loc)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "%PDF-1.7" {
		t.Errorf("stored bytes alias the caller's buffer: %q", data)
	}
	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}

	if err := b.Delete(ctx, loc); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d after delete", b.Len())
	}
	if err := b.Delete(ctx, "valkey://x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for foreign location, got %v", err)
	}
}

func TestCampaigns(t *testing.T) {
	c := NewCampaigns()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	late, err := domcamp.New("p2", "c2", "10", "0xw", base.Add(time.Minute))
	if err != nil {
		t.Fatalf("campaign: %v", err)
	}
	early, err := domcamp.New("p1", "c1", "10", "0xw", base)
	if err != nil {
		t.Fatalf("campaign: %v", err)
	}

	if err := c.Create(ctx, late); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Create(ctx, early); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Create(ctx, early); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].CampaignID() != "c1" {
		t.Errorf("unexpected campaign order: %d items", len(list))
	}
}
