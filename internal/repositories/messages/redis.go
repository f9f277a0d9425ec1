package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/redis/go-redis/v9"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
	TTL    time.Duration // How long a message stays re-invokable (default: 24 hours)
}

type redisRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepository creates a new Redis-backed message repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &redisRepo{
		client: cfg.Client,
		ttl:    ttl,
	}
}

func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("message:%s", id)
}

func (r *redisRepo) Create(ctx context.Context, message *entities.Message) error {
	if message == nil || message.ID == "" {
		return dherr.InvalidArgumentf("message ID is required")
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.Set(ctx, r.key(message.ID), string(jsonData), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (*entities.Message, error) {
	jsonData, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, dherr.NotFoundf("message '%s' not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	var message entities.Message
	if err := json.Unmarshal(jsonData, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &message, nil
}

func (r *redisRepo) Update(ctx context.Context, id string, p patch.Patch) (*entities.Message, error) {
	message, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(message, p); err != nil {
		return nil, dherr.Wrapf(err, "failed to patch message %s", id)
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.Set(ctx, r.key(id), string(jsonData), redis.KeepTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return message, nil
}
