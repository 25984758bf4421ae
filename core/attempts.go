package core

import "context"

// AttemptLimiter counts failed attempts per key over a window.
type AttemptLimiter interface {
	// Allowed reports whether key is still below the maximum number of failures.
	Allowed(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets the failures of key.
	Reset(ctx context.Context, key string) error
}
