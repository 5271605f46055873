package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DepositCache implements ports.DepositCache using Redis.
type DepositCache struct {
	client *goredis.Client
	prefix string
}

// NewDepositCache creates a new Redis-backed deposit dedup cache.
func NewDepositCache(client *goredis.Client) *DepositCache {
	return &DepositCache{
		client: client,
		prefix: "deposit:",
	}
}

// Seen reports whether txHash was marked as credited.
func (c *DepositCache) Seen(ctx context.Context, txHash string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+txHash).Result()
	if err != nil {
		return false, fmt.Errorf("redis deposit exists: %w", err)
	}
	return n > 0, nil
}

// Mark records txHash as credited for ttl.
func (c *DepositCache) Mark(ctx context.Context, txHash string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+txHash, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis deposit set: %w", err)
	}
	return nil
}
