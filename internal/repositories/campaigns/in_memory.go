package campaigns

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

type inMemoryRepository struct {
	mu        sync.RWMutex
	campaigns map[string][]byte
}

// NewInMemoryRepository creates a new in-memory campaign repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		campaigns: make(map[string][]byte),
	}
}

func (r *inMemoryRepository) Create(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil || campaign.ID == "" {
		return dherr.InvalidArgumentf("campaign ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.campaigns[campaign.ID]; exists {
		return dherr.AlreadyExistsf("campaign '%s' already exists", campaign.ID)
	}
	data, err := json.Marshal(campaign)
	if err != nil {
		return dherr.Wrap(err, "failed to marshal campaign")
	}
	r.campaigns[campaign.ID] = data
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, id string) (*entities.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *inMemoryRepository) get(id string) (*entities.Campaign, error) {
	data, exists := r.campaigns[id]
	if !exists {
		return nil, dherr.NotFoundf("campaign '%s' not found", id)
	}
	var campaign entities.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, dherr.Wrap(err, "failed to unmarshal campaign")
	}
	return &campaign, nil
}

func (r *inMemoryRepository) Update(ctx context.Context, id string, p patch.Patch) (*entities.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	campaign, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(campaign, p); err != nil {
		return nil, dherr.Wrapf(err, "failed to patch campaign %s", id)
	}
	campaign.Normalize()

	data, err := json.Marshal(campaign)
	if err != nil {
		return nil, dherr.Wrap(err, "failed to marshal campaign")
	}
	r.campaigns[id] = data
	return campaign, nil
}
