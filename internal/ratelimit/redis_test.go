package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res := l.Check(ctx, "1.2.3.4:write", 5, time.Minute)
		require.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 4-i, res.Remaining)
	}
	denied := l.Check(ctx, "1.2.3.4:write", 5, time.Minute)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Greater(t, denied.ResetIn, time.Duration(0))

	mr.FastForward(61 * time.Second)
	fresh := l.Check(ctx, "1.2.3.4:write", 5, time.Minute)
	assert.True(t, fresh.Allowed)
	assert.Equal(t, 4, fresh.Remaining)
}

func TestRedisUsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, nil)
	l.Check(context.Background(), "k", 3, time.Minute)
	assert.True(t, mr.Exists("rl:k"))
}

func TestRedisFallbackWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  5 * time.Millisecond,
		ReadTimeout:  5 * time.Millisecond,
		WriteTimeout: 5 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, NewMemory())
	ctx := context.Background()
	first := l.Check(ctx, "k", 1, time.Minute)
	assert.True(t, first.Allowed)
	second := l.Check(ctx, "k", 1, time.Minute)
	assert.False(t, second.Allowed, "fallback limiter must still enforce limits")
}

func TestRedisNilClientUsesFallback(t *testing.T) {
	l := NewRedis(nil, nil)
	assert.True(t, l.Check(context.Background(), "k", 1, time.Minute).Allowed)
	assert.False(t, l.Check(context.Background(), "k", 1, time.Minute).Allowed)
}
