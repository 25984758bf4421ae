// Package attemptsvc limits failed login attempts.
package attemptsvc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

const keyPrefix = "lnms:login-attempts:"

var nowFunc = time.Now // mockable

// New returns a Redis backed limiter when a Redis address is configured, an in-memory one otherwise.
func New(conf *core.Config) core.AttemptLimiter {
	if conf.Redis.Addr == "" {
		return NewMemoryLimiter(conf.Auth.MaxLoginAttempts, conf.Auth.LoginAttemptWindow)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
	})
	return NewRedisLimiter(client, conf.Auth.MaxLoginAttempts, conf.Auth.LoginAttemptWindow)
}

func key(k string) string {
	return keyPrefix + strings.ToLower(k)
}

type redisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

var _ core.AttemptLimiter = (*redisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *redisLimiter {
	return &redisLimiter{client: client, max: max, window: window}
}

func (l *redisLimiter) Allowed(ctx context.Context, k string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	n, err := l.client.Get(ctx, key(k)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "reading login attempts")
	}
	return n < l.max, nil
}

// Fail increments the counter. The window starts with the first failure.
// SetNX creates the key with its expiry and both commands run in one MULTI.
func (l *redisLimiter) Fail(ctx context.Context, k string) error {
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key(k), 0, l.window)
		pipe.Incr(ctx, key(k))
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "recording login attempt")
	}
	return nil
}

func (l *redisLimiter) Reset(ctx context.Context, k string) error {
	if err := l.client.Del(ctx, key(k)).Err(); err != nil {
		return errors.Wrap(err, "resetting login attempts")
	}
	return nil
}

type entry struct {
	count   int
	expires time.Time
}

type memoryLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

var _ core.AttemptLimiter = (*memoryLimiter)(nil)

func NewMemoryLimiter(max int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{max: max, window: window, entries: make(map[string]entry)}
}

// get returns the live entry of k. Callers must hold l.mu.
func (l *memoryLimiter) get(k string) (entry, bool) {
	e, ok := l.entries[k]
	if ok && !nowFunc().Before(e.expires) {
		delete(l.entries, k)
		return entry{}, false
	}
	return e, ok
}

func (l *memoryLimiter) Allowed(_ context.Context, k string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, _ := l.get(key(k))
	return e.count < l.max, nil
}

func (l *memoryLimiter) Fail(_ context.Context, k string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.get(key(k))
	if !ok {
		e.expires = nowFunc().Add(l.window)
	}
	e.count++
	l.entries[key(k)] = e
	return nil
}

func (l *memoryLimiter) Reset(_ context.Context, k string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key(k))
	return nil
}
