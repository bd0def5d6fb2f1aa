// Package cache provides a read-through Redis cache for caller-ID
// lookup strings. The PBX fires a lookup on every inbound call, so the
// hot path must not touch Postgres for numbers it has seen recently.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"switchboard/internal/platform/redis"
)

const keyPrefix = "switchboard:callerid:"

// Lookup caches resolved caller-ID strings by canonical number. A nil
// *Lookup is a valid disabled cache; every call falls through to the
// compute function.
type Lookup struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewLookup builds a lookup cache. Pass a nil client to disable
// caching while keeping the singleflight collapse.
func NewLookup(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Lookup {
	return &Lookup{client: client, ttl: ttl, logger: logger}
}

// Resolve returns the cached string for the canonical number, or runs
// compute and stores its result. Concurrent lookups for the same
// number share a single compute call.
func (c *Lookup) Resolve(ctx context.Context, canonical string, compute func(context.Context) (string, error)) (string, error) {
	if c == nil {
		return compute(ctx)
	}

	value, err, _ := c.group.Do(canonical, func() (any, error) {
		if c.client != nil {
			cached, err := c.client.Get(ctx, keyPrefix+canonical).Result()
			if err == nil {
				return cached, nil
			}
			if !errors.Is(err, goredis.Nil) {
				c.logger.WarnContext(ctx, "lookup cache read failed", "error", err)
			}
		}

		result, err := compute(ctx)
		if err != nil {
			return "", err
		}

		if c.client != nil {
			if err := c.client.Set(ctx, keyPrefix+canonical, result, c.ttl).Err(); err != nil {
				c.logger.WarnContext(ctx, "lookup cache write failed", "error", err)
			}
		}
		return result, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Invalidate drops cached entries for the given canonical numbers.
// Called after any save or delete that touches phone rows; blank
// numbers are skipped.
func (c *Lookup) Invalidate(ctx context.Context, canonicals ...string) {
	if c == nil || c.client == nil {
		return
	}
	keys := make([]string, 0, len(canonicals))
	for _, canonical := range canonicals {
		if canonical == "" {
			continue
		}
		keys = append(keys, keyPrefix+canonical)
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "lookup cache invalidation failed", "error", err)
	}
}
