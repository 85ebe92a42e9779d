// Package ratelimit implements a per-key cooldown shared by every instance
// through redis.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown lets at most one action per key inside a window.
//
// Allow reserves the window before the action runs so two concurrent callers
// cannot both pass. Record restarts the window once the action succeeded and
// Release drops the reservation when it failed.
type Cooldown struct {
	client redis.UniversalClient
	prefix string
	window time.Duration
}

// NewCooldown returns a limiter whose keys live under prefix.
func NewCooldown(client redis.UniversalClient, prefix string, window time.Duration) *Cooldown {
	return &Cooldown{client: client, prefix: prefix, window: window}
}

// Window returns the configured cooldown.
func (c *Cooldown) Window() time.Duration {
	return c.window
}

// Allow reserves key and reports whether the caller may proceed.
func (c *Cooldown) Allow(ctx context.Context, key string) (bool, error) {
	return c.client.SetNX(ctx, c.prefix+key, 1, c.window).Result()
}

// Record starts a full window for key from now.
func (c *Cooldown) Record(ctx context.Context, key string) error {
	return c.client.Set(ctx, c.prefix+key, 1, c.window).Err()
}

// Release removes the reservation on key.
func (c *Cooldown) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Remaining returns how long key stays blocked, zero when it is free.
func (c *Cooldown) Remaining(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.PTTL(ctx, c.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
