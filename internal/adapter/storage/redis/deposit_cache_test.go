package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositCache_MarkAndSeen(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDepositCache(client)
	ctx := context.Background()

	seen, err := cache.Seen(ctx, "0xfeed")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, cache.Mark(ctx, "0xfeed", time.Hour))

	seen, err = cache.Seen(ctx, "0xfeed")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, s.Exists("deposit:0xfeed"))
}

func TestDepositCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDepositCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Mark(ctx, "0xbeef", time.Second))
	s.FastForward(2 * time.Second)

	seen, err := cache.Seen(ctx, "0xbeef")
	assert.NoError(t, err)
	assert.False(t, seen, "expired marker should not be seen")
}

func TestDepositCache_RedisDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDepositCache(client)
	s.Close()

	_, err := cache.Seen(context.Background(), "0x1")
	assert.Error(t, err)
}
