package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of operations that already ran, such as
// client-supplied sale idempotency keys or processed event IDs.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets a key so the operation can be attempted again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// Locker serializes work on a named resource across processes.
type Locker interface {
	// Obtain acquires the lock or returns ErrLockNotObtained when it is held elsewhere.
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}
