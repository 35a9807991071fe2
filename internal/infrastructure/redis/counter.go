package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Counter is a fixed-window counter shared by every instance talking to the
// same Redis.
type Counter struct {
	client *goredis.Client
	prefix string
}

func NewCounter(client *goredis.Client, prefix string) *Counter {
	return &Counter{client: client, prefix: prefix}
}

// Hit increments key and returns the count within the current window. The
// window starts at the first hit. Creating the key with its TTL and the
// increment run in one MULTI, so a key never exists without an expiry.
func (c *Counter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := c.key(key)
	var incr *goredis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SetNX(ctx, k, 0, window)
		incr = p.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counter hit %s: %w", k, err)
	}
	return incr.Val(), nil
}

// Allow reports whether key is still within limit after this hit.
func (c *Counter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.Hit(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}

func (c *Counter) Clear(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *Counter) key(k string) string {
	return c.prefix + ":" + k
}
