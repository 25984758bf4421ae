package attemptsvc

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abra313/socrease-lesson-note-management/tests"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	allowed := func(k string) bool {
		ok, err := l.Allowed(ctx, k)
		require.NoError(t, err)
		return ok
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, l.Fail(ctx, "ada@school.ng"))
	}
	assert.True(t, allowed("ada@school.ng"))

	now = now.Add(30 * time.Second)
	require.NoError(t, l.Fail(ctx, "ADA@school.ng"))
	assert.False(t, allowed("ada@school.ng"), "keys are case-insensitive")
	assert.True(t, allowed("bayo@school.ng"))

	// the window starts with the first failure
	now = now.Add(30 * time.Second)
	assert.True(t, allowed("ada@school.ng"))

	require.NoError(t, l.Fail(ctx, "ada@school.ng"))
	require.NoError(t, l.Reset(ctx, "ada@school.ng"))
	for i := 0; i < 2; i++ {
		require.NoError(t, l.Fail(ctx, "ada@school.ng"))
	}
	assert.True(t, allowed("ada@school.ng"))
}

func TestMemoryLimiter_disabled(t *testing.T) {
	l := NewMemoryLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Fail(context.Background(), "k"))
	}
	ok, err := l.Allowed(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	conf := testutil.NewConfig()
	_, ok := New(conf).(*memoryLimiter)
	assert.True(t, ok)

	conf.Redis.Addr = "localhost:6379"
	_, ok = New(conf).(*redisLimiter)
	assert.True(t, ok)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	const email = "ada@school.ng"
	l := NewRedisLimiter(client, 3, time.Minute)
	require.NoError(t, l.Reset(ctx, email))
	defer l.Reset(ctx, email)

	require.NoError(t, l.Fail(ctx, email))
	ttl, err := client.TTL(ctx, key(email)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "first failure sets the window, got %s", ttl)

	// later failures keep the original window
	require.NoError(t, client.Expire(ctx, key(email), 30*time.Second).Err())
	require.NoError(t, l.Fail(ctx, email))
	ttl, err = client.TTL(ctx, key(email)).Result()
	require.NoError(t, err)
	assert.True(t, ttl <= 30*time.Second, "window was restarted, got %s", ttl)

	ok, err := l.Allowed(ctx, email)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Fail(ctx, "ADA@school.ng"))
	n, err := client.Get(ctx, key(email)).Int()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	ok, err = l.Allowed(ctx, email)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Reset(ctx, email))
	ok, err = l.Allowed(ctx, email)
	require.NoError(t, err)
	assert.True(t, ok)
}
