package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/redis/go-redis/v9"
)

// redisPresence keeps participants in a hash per campaign
type redisPresence struct {
	client redis.UniversalClient
	key    string
}

// NewRedisPresence stores presence at presence:<campaignID>
func NewRedisPresence(client redis.UniversalClient, campaignID string) Presence {
	if client == nil {
		panic("Redis client cannot be nil")
	}
	return &redisPresence{
		client: client,
		key:    fmt.Sprintf("presence:%s", campaignID),
	}
}

func (r *redisPresence) Join(ctx context.Context, p Participant) error {
	if p.ID == "" {
		return dherr.InvalidArgumentf("participant ID is required")
	}
	p.Active = true
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}
	if err := r.client.HSet(ctx, r.key, p.ID, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to join presence: %w", err)
	}
	return nil
}

func (r *redisPresence) Leave(ctx context.Context, participantID string) error {
	if err := r.client.HDel(ctx, r.key, participantID).Err(); err != nil {
		return fmt.Errorf("failed to leave presence: %w", err)
	}
	return nil
}

func (r *redisPresence) List(ctx context.Context) ([]Participant, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	out := make([]Participant, 0, len(raw))
	for id, data := range raw {
		var p Participant
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participant %s: %w", id, err)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
