package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// TestRedisConfig points integration tests at a live Redis
type TestRedisConfig struct {
	Addr     string `env:"REDIS_TEST_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_TEST_PASSWORD"`
	DB       int    `env:"REDIS_TEST_DB" envDefault:"15"` // keep away from campaign data
}

// LoadTestRedisConfig reads REDIS_TEST_* from the environment
func LoadTestRedisConfig(t *testing.T) *TestRedisConfig {
	t.Helper()
	cfg, err := env.ParseAs[TestRedisConfig]()
	require.NoError(t, err)
	return &cfg
}

// CreateTestRedisClient connects to cfg, skipping the test when Redis is down.
// The database is flushed before and after the test.
func CreateTestRedisClient(t *testing.T, cfg *TestRedisConfig) redis.UniversalClient {
	t.Helper()
	if cfg == nil {
		cfg = LoadTestRedisConfig(t)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err(), "Failed to flush test Redis database")

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}

// CreateTestRedisClientOrSkip creates a Redis client or skips the test if Redis is not available
func CreateTestRedisClientOrSkip(t *testing.T) redis.UniversalClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}
	return CreateTestRedisClient(t, nil)
}
