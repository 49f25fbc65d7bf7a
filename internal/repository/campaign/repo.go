package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/docdedup/internal/db"
	"github.com/kailas-cloud/docdedup/internal/domain"
	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
)

const keyPrefix = domain.KeyPrefix + "campaign:"

// store is the consumer interface for campaigns (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

type campaignDoc struct {
	PaperID       string    `json:"paper_id"`
	CampaignID    string    `json:"campaign_id"`
	Goal          string    `json:"goal"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repo stores campaigns keyed by campaign ID.
type Repo struct {
	store store
}

// New creates a campaign repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores c. A taken campaign ID yields ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c domcamp.Campaign) error {
	data, err := json.Marshal(campaignDoc{
		PaperID:       c.PaperID(),
		CampaignID:    c.CampaignID(),
		Goal:          c.Goal(),
		WalletAddress: c.WalletAddress(),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	})
	if err != nil {
		return fmt.Errorf("marshal campaign: %w", err)
	}

	ok, err := r.store.SetNX(ctx, keyPrefix+c.CampaignID(), data, 0)
	if err != nil {
		return fmt.Errorf("store campaign %s: %w", c.CampaignID(), err)
	}
	if !ok {
		return fmt.Errorf("campaign %s: %w", c.CampaignID(), domain.ErrAlreadyExists)
	}
	return nil
}

// List returns all campaigns, oldest first.
func (r *Repo) List(ctx context.Context) ([]domcamp.Campaign, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan campaigns: %w", err)
	}

	out := make([]domcamp.Campaign, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			if db.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("get campaign %s: %w", key, err)
		}
		var d campaignDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode campaign %s: %w", key, err)
		}
		out = append(out, domcamp.Reconstruct(d.PaperID, d.CampaignID, d.Goal, d.WalletAddress, d.CreatedAt, d.UpdatedAt))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CampaignID() < out[j].CampaignID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}
