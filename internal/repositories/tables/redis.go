package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/redis/go-redis/v9"
)

const indexKey = "tables:ids"

type redisRepo struct {
	client redis.UniversalClient
}

func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("table:%s", id)
}

func (r *redisRepo) Put(ctx context.Context, table *entities.RollTable) error {
	if table == nil || table.ID == "" {
		return dherr.InvalidArgumentf("table ID is required")
	}

	jsonData, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal table: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(table.ID), string(jsonData), 0)
	pipe.SAdd(ctx, indexKey, table.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (*entities.RollTable, error) {
	jsonData, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, dherr.NotFoundf("table '%s' not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}

	var table entities.RollTable
	if err := json.Unmarshal(jsonData, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}
	return &table, nil
}

func (r *redisRepo) List(ctx context.Context) ([]*entities.RollTable, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	sort.Strings(ids)

	out := make([]*entities.RollTable, 0, len(ids))
	for _, id := range ids {
		table, err := r.Get(ctx, id)
		if dherr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, table)
	}
	return out, nil
}
