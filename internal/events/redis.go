package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "acu:events:"

// RedisBus fans messages out across processes using Redis pub/sub. Local
// subscribers are reached through Redis as well, so delivery is asynchronous.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisBus wraps an existing client.
func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, logger: logger}
}

// Publish sends msg on the workspace channel.
func (b *RedisBus) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	if err := b.client.Publish(ctx, redisChannelPrefix+msg.Workspace, data).Err(); err != nil {
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

// Subscribe listens on every workspace channel until ctx is done.
func (b *RedisBus) Subscribe(ctx context.Context, h Handler) error {
	pubsub := b.client.PSubscribe(ctx, redisChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("events: subscribe: %w", err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.logger.Warn("events: drop malformed message", slog.String("channel", raw.Channel), slog.Any("error", err))
					continue
				}
				h(ctx, msg)
			}
		}
	}()
	return nil
}
