package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// redisTransport carries envelopes over Redis Pub/Sub
type redisTransport struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewRedisTransport publishes on relay:<campaignID>
func NewRedisTransport(client redis.UniversalClient, campaignID string, logger *slog.Logger) Transport {
	if client == nil {
		panic("Redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redisTransport{
		client:  client,
		channel: fmt.Sprintf("relay:%s", campaignID),
		logger:  logger,
	}
}

func (t *redisTransport) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err := t.client.Publish(ctx, t.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish envelope: %w", err)
	}
	return nil
}

func (t *redisTransport) Subscribe(ctx context.Context, listenerID string, listener Listener) (func(), error) {
	pubsub := t.client.Subscribe(ctx, t.channel)
	// Wait for the subscription to be confirmed so no early publish is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", t.channel, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				t.logger.Warn("dropping malformed relay envelope", "listener", listenerID, "error", err)
				continue
			}
			listener(env)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			t.logger.Warn("failed to close relay subscription", "listener", listenerID, "error", err)
		}
	}, nil
}
