package locker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLocker connects to REDIS_URL (localhost by default) and skips when
// no server answers. Every locker gets its own key prefix.
func newTestLocker(t *testing.T) *RedisLocker {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable at %s: %v", url, err)
	}

	return NewRedisLocker(client, "test:lock:"+uuid.NewString()+":")
}

func TestRedisLocker_TryLock(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	ok, token, err := l.TryLock(ctx, "slot", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	ok, second, err := l.TryLock(ctx, "slot", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, second)

	ok, _, err = l.TryLock(ctx, "other-slot", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong token", func(t *testing.T) {
		l := newTestLocker(t)
		ok, _, err := l.TryLock(ctx, "slot", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		err = l.Unlock(ctx, "slot", uuid.NewString())
		assert.ErrorIs(t, err, ErrNotOwner)

		ok, _, err = l.TryLock(ctx, "slot", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "lock must survive a foreign unlock")
	})

	t.Run("owner releases", func(t *testing.T) {
		l := newTestLocker(t)
		ok, token, err := l.TryLock(ctx, "slot", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, l.Unlock(ctx, "slot", token))

		ok, _, err = l.TryLock(ctx, "slot", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("double unlock", func(t *testing.T) {
		l := newTestLocker(t)
		ok, token, err := l.TryLock(ctx, "slot", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, l.Unlock(ctx, "slot", token))
		assert.ErrorIs(t, l.Unlock(ctx, "slot", token), ErrNotOwner)
	})

	t.Run("expired lock", func(t *testing.T) {
		l := newTestLocker(t)
		ok, token, err := l.TryLock(ctx, "slot", 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(150 * time.Millisecond)

		assert.ErrorIs(t, l.Unlock(ctx, "slot", token), ErrNotOwner)
		ok, _, err = l.TryLock(ctx, "slot", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
