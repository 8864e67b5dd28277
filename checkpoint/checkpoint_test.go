package checkpoint

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "nhlcrawler:v1:game:2019030042", Key("v1", "2019030042"))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	cp, err := NewMemory(2)
	require.NoError(t, err)

	done, err := cp.Done(ctx, "v1", "2019030042")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, cp.Mark(ctx, "v1", "2019030042"))
	done, _ = cp.Done(ctx, "v1", "2019030042")
	assert.True(t, done)

	done, _ = cp.Done(ctx, "v2", "2019030042")
	assert.False(t, done, "checkpoints are per schema version")

	require.NoError(t, cp.Mark(ctx, "v1", "2"))
	require.NoError(t, cp.Mark(ctx, "v1", "3"))
	done, _ = cp.Done(ctx, "v1", "2019030042")
	assert.False(t, done, "oldest entry is evicted")
}

func TestNop(t *testing.T) {
	var cp Checkpoint = Nop{}
	require.NoError(t, cp.Mark(context.Background(), "v1", "1"))
	done, err := cp.Done(context.Background(), "v1", "1")
	require.NoError(t, err)
	assert.False(t, done)
}

func newMiniRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	cp, err := NewRedis(context.Background(), "redis://"+server.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { cp.Close() })
	return cp, server
}

func TestRedisMarkAndDone(t *testing.T) {
	ctx := context.Background()
	cp, server := newMiniRedis(t, time.Hour)

	done, err := cp.Done(ctx, "v1", "2019030042")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, cp.Mark(ctx, "v1", "2019030042"))
	assert.True(t, server.Exists("nhlcrawler:v1:game:2019030042"))
	assert.Equal(t, time.Hour, server.TTL("nhlcrawler:v1:game:2019030042"))

	done, err = cp.Done(ctx, "v1", "2019030042")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = cp.Done(ctx, "v2", "2019030042")
	require.NoError(t, err)
	assert.False(t, done, "checkpoints are per schema version")
}

func TestRedisCheckpointExpires(t *testing.T) {
	ctx := context.Background()
	cp, server := newMiniRedis(t, time.Minute)

	require.NoError(t, cp.Mark(ctx, "v1", "1"))
	server.FastForward(2 * time.Minute)

	done, err := cp.Done(ctx, "v1", "1")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRedisErrors(t *testing.T) {
	ctx := context.Background()
	cp, server := newMiniRedis(t, time.Minute)
	server.SetError("ERR checkpoint store unavailable")

	_, err := cp.Done(ctx, "v1", "1")
	assert.ErrorContains(t, err, "check checkpoint 1")
	assert.ErrorContains(t, cp.Mark(ctx, "v1", "1"), "mark checkpoint 1")
}

func TestNewRedisUnreachable(t *testing.T) {
	server := miniredis.NewMiniRedis()
	require.NoError(t, server.Start())
	addr := server.Addr()
	server.Close()

	_, err := NewRedis(context.Background(), "redis://"+addr, time.Minute)
	assert.ErrorContains(t, err, "ping redis")
}

func TestRedisLive(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	cp, err := NewRedis(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() {
		cp.client.Del(context.Background(), Key("test", "1"))
		cp.Close()
	})

	done, err := cp.Done(ctx, "test", "1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, cp.Mark(ctx, "test", "1"))
	done, err = cp.Done(ctx, "test", "1")
	require.NoError(t, err)
	assert.True(t, done)

	ttl, err := cp.client.TTL(ctx, Key("test", "1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-redis-url", time.Minute)
	assert.Error(t, err)
}
