package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/undesputed/senior-care-central-sub001/common/config"

	"github.com/go-redis/redis/v8"
)

// Client lets callers hold a connection without importing go-redis.
type Client = redis.Client

// Connect builds a client for cfg and pings it within timeout.
// On failure the client is closed and only the error is returned.
func Connect(ctx context.Context, cfg *config.RedisConfig, timeout time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}
	return client, nil
}

// Close is a no-op for a nil client.
func Close(client *Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
