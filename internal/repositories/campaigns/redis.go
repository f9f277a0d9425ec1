package campaigns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	client redis.UniversalClient
}

func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("campaign:%s", id)
}

func (r *redisRepo) Create(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil || campaign.ID == "" {
		return dherr.InvalidArgumentf("campaign ID is required")
	}

	jsonData, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(campaign.ID), string(jsonData), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	if !created {
		return dherr.AlreadyExistsf("campaign '%s' already exists", campaign.ID)
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (*entities.Campaign, error) {
	jsonData, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, dherr.NotFoundf("campaign '%s' not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	var campaign entities.Campaign
	if err := json.Unmarshal(jsonData, &campaign); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign: %w", err)
	}
	return &campaign, nil
}

func (r *redisRepo) Update(ctx context.Context, id string, p patch.Patch) (*entities.Campaign, error) {
	campaign, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(campaign, p); err != nil {
		return nil, dherr.Wrapf(err, "failed to patch campaign %s", id)
	}
	campaign.Normalize()

	jsonData, err := json.Marshal(campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal campaign: %w", err)
	}
	if err := r.client.Set(ctx, r.key(id), string(jsonData), 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}
