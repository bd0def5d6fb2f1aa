//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"switchboard/internal/directory/cache"
	"switchboard/internal/platform/logger"
	"switchboard/internal/platform/redis"
	"switchboard/pkg/testutil/containers"
)

func TestLookupCache_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	client, err := redis.New(rc.URL)
	require.NoError(t, err)
	defer client.Close()

	lookups := cache.NewLookup(client, time.Minute, logger.New())

	computed := 0
	compute := func(context.Context) (string, error) {
		computed++
		return "Jane Doe", nil
	}

	result, err := lookups.Resolve(ctx, "05312345678", compute)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", result)
	require.Equal(t, 1, computed)

	// Second resolve must come from Redis, not compute.
	result, err = lookups.Resolve(ctx, "05312345678", compute)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", result)
	require.Equal(t, 1, computed)

	lookups.Invalidate(ctx, "05312345678")

	result, err = lookups.Resolve(ctx, "05312345678", compute)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", result)
	require.Equal(t, 2, computed)
}
