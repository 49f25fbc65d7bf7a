package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docdedup/internal/db"
	"github.com/kailas-cloud/docdedup/internal/domain"
	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
)

type kvStore map[string][]byte

func (s kvStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s kvStore) SetNX(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	if _, ok := s[key]; ok {
		return false, nil
	}
	s[key] = value
	return true, nil
}

func (s kvStore) Scan(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys, nil
}

func mustCampaign(t *testing.T, id string, at time.Time) domcamp.Campaign {
	t.Helper()
	c, err := domcamp.New("paper-"+id, id, "1000", "0xwallet", at)
	if err != nil {
		t.Fatalf("campaign %s: %v", id, err)
	}
	return c
}

func TestCreateAndList(t *testing.T) {
	r := New(kvStore{})
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := r.Create(ctx, mustCampaign(t, "c2", base.Add(time.Hour))); err != nil {
		t.Fatalf("Create c2: %v", err)
	}
	if err := r.Create(ctx, mustCampaign(t, "c1", base)); err != nil {
		t.Fatalf("Create c1: %v", err)
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(list))
	}
	if list[0].CampaignID() != "c1" || list[1].CampaignID() != "c2" {
		t.Errorf("order = [%s %s], want [c1 c2]", list[0].CampaignID(), list[1].CampaignID())
	}
	if list[0].PaperID() != "paper-c1" {
		t.Errorf("paper id = %q", list[0].PaperID())
	}
	if !list[0].CreatedAt().Equal(base) {
		t.Errorf("createdAt = %v, want %v", list[0].CreatedAt(), base)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	r := New(kvStore{})
	ctx := context.Background()
	now := time.Now()

	if err := r.Create(ctx, mustCampaign(t, "c1", now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Create(ctx, mustCampaign(t, "c1", now)); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}
