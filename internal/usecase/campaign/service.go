package campaign

import (
	"context"
	"fmt"
	"time"

	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
)

// CreateInput carries the caller-supplied campaign fields.
type CreateInput struct {
	PaperID       string
	CampaignID    string
	Goal          string
	WalletAddress string
}

// Service manages funding campaigns attached to stored papers.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New creates a campaign service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates and stores a campaign. A taken campaign ID yields ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, in CreateInput) (domcamp.Campaign, error) {
	c, err := domcamp.New(in.PaperID, in.CampaignID, in.Goal, in.WalletAddress, s.now())
	if err != nil {
		return domcamp.Campaign{}, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return domcamp.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// List returns all campaigns, oldest first.
func (s *Service) List(ctx context.Context) ([]domcamp.Campaign, error) {
	cs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return cs, nil
}
