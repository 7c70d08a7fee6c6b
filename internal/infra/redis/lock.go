package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned by TryLock when another holder owns the key.
var ErrLockHeld = errors.New("lock held by another holder")

// Locker is a lease: the holder keeps it until Unlock or until ttl runs out.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	cli      RedisClient
	newToken func() string
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c, newToken: uuid.NewString}
}

// TryLock makes one SETNX attempt and never waits for a current holder.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("lock %s: ttl must be positive", key)
	}
	token := l.newToken()
	acquired, err := l.cli.SetNX(ctx, key, token, ttl)
	switch {
	case err != nil:
		return "", fmt.Errorf("lock %s: %w", key, err)
	case !acquired:
		return "", ErrLockHeld
	}
	return token, nil
}

// Unlock is a no-op when the lease expired and someone else took the key.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	if err := l.cli.DelIfEquals(ctx, key, token); err != nil {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	return nil
}
