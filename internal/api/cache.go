package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// responseCache keeps schedule lookups in Redis. The resolver is cheap but
// the date endpoints are the hottest path, and a shared cache keeps replies
// identical across instances.
type responseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// newResponseCache returns nil when no client is configured; a nil cache is
// a no-op on both read and write.
func newResponseCache(client *redis.Client, ttl time.Duration) *responseCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &responseCache{client: client, ttl: ttl}
}

func (c *responseCache) read(ctx context.Context, key string, out any) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *responseCache) write(ctx context.Context, key string, val any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}
