package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisLocker obtains distributed locks with redislock
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
}

// NewRedisLocker creates a locker on an existing client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(client), keyPrefix: "lock:"}
}

// Obtain tries once to take the lock; a held lock yields ErrLockNotObtained
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	lock, err := l.client.Obtain(ctx, l.keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		// expired before release; nothing left to free
		return nil
	}
	return err
}

// LocalLocker serializes work inside one process. Locks expire after their
// ttl so a caller that never releases cannot wedge the key.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]*localLock
	now  func() time.Time
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]*localLock), now: time.Now}
}

// Obtain takes the lock or returns ErrLockNotObtained when it is held
func (l *LocalLocker) Obtain(_ context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expiresAt) {
		return nil, shared.ErrLockNotObtained
	}
	lock := &localLock{owner: l, key: key, expiresAt: now.Add(ttl)}
	l.held[key] = lock
	return lock, nil
}

type localLock struct {
	owner     *LocalLocker
	key       string
	expiresAt time.Time
}

func (l *localLock) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	if l.owner.held[l.key] == l {
		delete(l.owner.held, l.key)
	}
	return nil
}

var (
	_ shared.Locker = (*RedisLocker)(nil)
	_ shared.Locker = (*LocalLocker)(nil)
)
