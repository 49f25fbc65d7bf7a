package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
	"github.com/kailas-cloud/docdedup/internal/repository/memory"
)

func validInput() CreateInput {
	return CreateInput{PaperID: "p1", CampaignID: "c1", Goal: "100", WalletAddress: "0xwallet"}
}

func TestCreate_Success(t *testing.T) {
	svc := New(memory.NewCampaigns())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	c, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.CampaignID() != "c1" || c.PaperID() != "p1" {
		t.Errorf("unexpected campaign: %+v", c)
	}
	if !c.CreatedAt().Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt(), fixed)
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 campaign, got %d", len(list))
	}
}

func TestCreate_MissingField(t *testing.T) {
	in := validInput()
	in.WalletAddress = " "
	_, err := New(memory.NewCampaigns()).Create(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreate_DuplicateCampaignID(t *testing.T) {
	svc := New(memory.NewCampaigns())
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := svc.Create(context.Background(), validInput())
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, domcamp.Campaign) error { return domain.ErrIndex }
func (failingRepo) List(context.Context) ([]domcamp.Campaign, error) { return nil, domain.ErrIndex }

func TestList_RepoError(t *testing.T) {
	_, err := New(failingRepo{}).List(context.Background())
	if !errors.Is(err, domain.ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
}
