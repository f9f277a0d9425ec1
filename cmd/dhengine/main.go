package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dh-automation/internal/config"
	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/otel"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/services"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "dhengine", cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	redisClient := connectRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("error closing redis connection", "error", err)
			}
		}()
	}

	providerConfig := &services.ProviderConfig{
		CampaignID: cfg.CampaignID,
		Participant: relay.Participant{
			ID:   cfg.Participant.ID,
			Name: cfg.Participant.Name,
			Role: relay.Role(cfg.Participant.Role),
		},
		RelayTimeout: cfg.Relay.Timeout,
		Automation: entities.Automation{
			Triggers: cfg.Automation.Triggers,
			HopeFear: cfg.Automation.HopeFear,
		},
		Logger: logger,
	}
	if redisClient != nil {
		providerConfig.RedisClient = redisClient
	}
	if cfg.DiceSeed != 0 {
		providerConfig.Roller = dice.NewSeededRoller(cfg.DiceSeed)
	}

	provider, err := services.NewProvider(providerConfig)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		os.Exit(1)
	}

	provider.Relay.OnRefresh(func(operation string, payload json.RawMessage) {
		logger.Debug("refresh", "operation", operation, "bytes", len(payload))
	})

	if err := provider.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}
	logger.Info("engine running",
		"campaign", cfg.CampaignID,
		"participant", cfg.Participant.ID,
		"role", cfg.Participant.Role,
		"authority", provider.Relay.IsAuthority(ctx),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Stop(stopCtx); err != nil {
		logger.Warn("failed to leave relay", "error", err)
	}
}

// connectRedis returns a connected client, or nil to run in memory
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.URL != "" {
		parsed, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("failed to parse redis url, falling back to in-memory repositories", "error", err)
			return nil
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to connect to redis, falling back to in-memory repositories", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("using redis for persistence", "addr", opts.Addr)
	return client
}
