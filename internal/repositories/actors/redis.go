package actors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const namesKey = "actors:names"

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// redisRepo implements the Repository interface using Redis
type redisRepo struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed actor repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}

	return &redisRepo{
		client: cfg.Client,
	}
}

// key generates the Redis key for an actor
func (r *redisRepo) key(uuid string) string {
	return fmt.Sprintf("actor:%s", uuid)
}

// Create stores a new actor
func (r *redisRepo) Create(ctx context.Context, actor *entities.Actor) error {
	if actor == nil {
		return dherr.InvalidArgumentf("actor cannot be nil")
	}
	if actor.UUID == "" {
		return dherr.InvalidArgumentf("actor UUID is required")
	}

	exists, err := r.client.Exists(ctx, r.key(actor.UUID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check actor existence: %w", err)
	}
	if exists > 0 {
		return dherr.AlreadyExistsf("actor with UUID '%s' already exists", actor.UUID).
			WithMeta("actor_uuid", actor.UUID)
	}

	jsonData, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("failed to marshal actor: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(actor.UUID), string(jsonData), 0)
	if !actor.Compendium && actor.Name != "" {
		pipe.HSet(ctx, namesKey, actor.Name, actor.UUID)
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create actor: %w", err)
	}

	return nil
}

// Get retrieves an actor by UUID
func (r *redisRepo) Get(ctx context.Context, uuid string) (*entities.Actor, error) {
	if uuid == "" {
		return nil, dherr.InvalidArgumentf("actor UUID is required")
	}

	jsonData, err := r.client.Get(ctx, r.key(uuid)).Bytes()
	if err == redis.Nil {
		return nil, dherr.NotFoundf("actor with UUID '%s' not found", uuid).
			WithMeta("actor_uuid", uuid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}

	var actor entities.Actor
	if err := json.Unmarshal(jsonData, &actor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actor: %w", err)
	}
	return &actor, nil
}

// ListByUUIDs fetches actors concurrently, preserving request order
func (r *redisRepo) ListByUUIDs(ctx context.Context, uuids []string) ([]*entities.Actor, error) {
	result := make([]*entities.Actor, len(uuids))

	g, ctx := errgroup.WithContext(ctx)
	for i, uuid := range uuids {
		i, uuid := i, uuid
		g.Go(func() error {
			actor, err := r.Get(ctx, uuid)
			if err != nil {
				return dherr.Wrapf(err, "failed to get actor %s", uuid)
			}
			result[i] = actor
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindByName resolves a world actor through the name index
func (r *redisRepo) FindByName(ctx context.Context, name string) (*entities.Actor, error) {
	uuid, err := r.client.HGet(ctx, namesKey, name).Result()
	if err == redis.Nil {
		return nil, dherr.NotFoundf("no world actor named '%s'", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up actor name: %w", err)
	}
	return r.Get(ctx, uuid)
}

// Update applies a partial patch to an actor
func (r *redisRepo) Update(ctx context.Context, uuid string, p patch.Patch) (*entities.Actor, error) {
	actor, err := r.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	oldName := actor.Name

	if err := patch.Apply(actor, p); err != nil {
		return nil, dherr.Wrapf(err, "failed to patch actor %s", uuid)
	}
	actor.Normalize()

	jsonData, err := json.Marshal(actor)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actor: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(uuid), string(jsonData), 0)
	if !actor.Compendium && oldName != actor.Name {
		pipe.HDel(ctx, namesKey, oldName)
		pipe.HSet(ctx, namesKey, actor.Name, uuid)
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update actor: %w", err)
	}

	return actor, nil
}

// Delete removes an actor and its name index entry
func (r *redisRepo) Delete(ctx context.Context, uuid string) error {
	actor, err := r.Get(ctx, uuid)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(uuid))
	if !actor.Compendium {
		pipe.HDel(ctx, namesKey, actor.Name)
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete actor: %w", err)
	}

	return nil
}
