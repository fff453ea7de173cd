package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker serializes schema repair. Obtain blocks until the lock is held or ctx
// ends, and returns the function that releases it.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
	Close() error
}

// localLocker only serializes writers inside this process.
type localLocker struct {
	mu sync.Mutex
}

// NewLocalLocker returns an in-process Locker.
func NewLocalLocker() Locker {
	return &localLocker{}
}

func (l *localLocker) Obtain(ctx context.Context, _ string, _ time.Duration) (func(context.Context) error, error) {
	locked := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(locked)
	}()
	select {
	case <-locked:
		return func(context.Context) error {
			l.mu.Unlock()
			return nil
		}, nil
	case <-ctx.Done():
		// The goroutine still acquires the mutex eventually; hand it straight back.
		go func() {
			<-locked
			l.mu.Unlock()
		}()
		return nil, ctx.Err()
	}
}

func (l *localLocker) Close() error { return nil }

// RedisLocker serializes writers across processes sharing one Redis.
type RedisLocker struct {
	rdb    *redis.Client
	locker *redislock.Client
}

// NewRedisLocker connects to redisURL (redis://host:port/db) and pings it.
func NewRedisLocker(ctx context.Context, redisURL string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return &RedisLocker{rdb: rdb, locker: redislock.New(rdb)}, nil
}

func (r *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := r.locker.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(ttl/(100*time.Millisecond))),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("could not obtain lock %s: %w", key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("error obtaining lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		return lock.Release(ctx)
	}, nil
}

func (r *RedisLocker) Close() error {
	return r.rdb.Close()
}
