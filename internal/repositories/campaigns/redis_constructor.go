package campaigns

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis creates a new Redis-backed campaign repository
func NewRedis(client redis.UniversalClient) Repository {
	if client == nil {
		panic("Redis client cannot be nil")
	}
	return &redisRepo{client: client}
}
