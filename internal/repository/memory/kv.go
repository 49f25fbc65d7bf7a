package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/docdedup/internal/domain"
	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
)

// Fingerprints maps content hashes to their holder. Claims never expire.
type Fingerprints struct {
	mu      sync.Mutex
	holders map[string]string
}

// NewFingerprints creates an empty fingerprint table.
func NewFingerprints() *Fingerprints {
	return &Fingerprints{holders: make(map[string]string)}
}

// Claim reserves fp for holderID. False means another holder owns it.
func (f *Fingerprints) Claim(_ context.Context, fp, holderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.holders[fp]; ok {
		return false, nil
	}
	f.holders[fp] = holderID
	return true, nil
}

// Confirm records holderID as the permanent owner of fp.
func (f *Fingerprints) Confirm(_ context.Context, fp, holderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holders[fp] = holderID
	return nil
}

// Lookup returns the holder of fp.
func (f *Fingerprints) Lookup(_ context.Context, fp string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.holders[fp]
	if !ok {
		return "", fmt.Errorf("fingerprint %s: %w", fp, domain.ErrNotFound)
	}
	return h, nil
}

// Release drops a claim.
func (f *Fingerprints) Release(_ context.Context, fp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holders, fp)
	return nil
}

const blobScheme = "memory://"

// Blobs keeps uploaded bytes in process memory.
type Blobs struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBlobs creates an empty blob store.
func NewBlobs() *Blobs {
	return &Blobs{data: make(map[string][]byte)}
}

// Put stores a copy of data under id.
func (b *Blobs) Put(_ context.Context, id string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[id] = append([]byte(nil), data...)
	return blobScheme + id, nil
}

// Get returns the bytes behind location.
func (b *Blobs) Get(_ context.Context, location string) ([]byte, error) {
	id, ok := strings.CutPrefix(location, blobScheme)
	if !ok {
		return nil, fmt.Errorf("foreign blob location %q: %w", location, domain.ErrInvalidInput)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.data[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", location, domain.ErrNotFound)
	}
	return data, nil
}

// Delete removes the bytes behind location.
func (b *Blobs) Delete(_ context.Context, location string) error {
	id, ok := strings.CutPrefix(location, blobScheme)
	if !ok {
		return fmt.Errorf("foreign blob location %q: %w", location, domain.ErrInvalidInput)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, id)
	return nil
}

// Len returns the number of stored blobs.
func (b *Blobs) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Campaigns stores campaigns keyed by campaign ID.
type Campaigns struct {
	mu    sync.RWMutex
	items map[string]domcamp.Campaign
}

// NewCampaigns creates an empty campaign store.
func NewCampaigns() *Campaigns {
	return &Campaigns{items: make(map[string]domcamp.Campaign)}
}

// Create stores c unless its campaign ID is taken.
func (c *Campaigns) Create(_ context.Context, camp domcamp.Campaign) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[camp.CampaignID()]; ok {
		return fmt.Errorf("campaign %s: %w", camp.CampaignID(), domain.ErrAlreadyExists)
	}
	c.items[camp.CampaignID()] = camp
	return nil
}

// List returns all campaigns, oldest first.
func (c *Campaigns) List(context.Context) ([]domcamp.Campaign, error) {
	c.mu.RLock()
	out := make([]domcamp.Campaign, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CampaignID() < out[j].CampaignID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}
