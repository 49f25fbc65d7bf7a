package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
)

// Campaign is a funding campaign attached to a stored paper (immutable value object).
type Campaign struct {
	paperID       string
	campaignID    string
	goal          string
	walletAddress string
	createdAt     time.Time
	updatedAt     time.Time
}

// New validates and creates a Campaign. All fields are required.
func New(paperID, campaignID, goal, walletAddress string, now time.Time) (Campaign, error) {
	required := []struct {
		name, value string
	}{
		{"paperId", paperID},
		{"campaignId", campaignID},
		{"goal", goal},
		{"walletAddress", walletAddress},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return Campaign{}, fmt.Errorf("%s is required: %w", f.name, domain.ErrInvalidInput)
		}
	}

	now = now.UTC()
	return Campaign{
		paperID:       paperID,
		campaignID:    campaignID,
		goal:          goal,
		walletAddress: walletAddress,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct creates a Campaign without validation (storage hydration).
func Reconstruct(paperID, campaignID, goal, walletAddress string, createdAt, updatedAt time.Time) Campaign {
	return Campaign{
		paperID: paperID, campaignID: campaignID, goal: goal, walletAddress: walletAddress,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// PaperID returns the referenced paper (record) identifier.
func (c *Campaign) PaperID() string { return c.paperID }

// CampaignID returns the unique campaign identifier.
func (c *Campaign) CampaignID() string { return c.campaignID }

// Goal returns the campaign goal.
func (c *Campaign) Goal() string { return c.goal }

// WalletAddress returns the receiving wallet.
func (c *Campaign) WalletAddress() string { return c.walletAddress }

// CreatedAt returns the creation timestamp.
func (c *Campaign) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last update timestamp.
func (c *Campaign) UpdatedAt() time.Time { return c.updatedAt }
