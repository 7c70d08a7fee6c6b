package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview-coach/internal/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the slice of go-redis the cache, limiter and locker need.
// Get returns an error satisfying IsNil for absent keys.
type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// DelIfEquals deletes key only while it still holds value.
	DelIfEquals(ctx context.Context, key, value string) error
	Close() error
}

var _ RedisClient = (*client)(nil)

type client struct {
	rdb *redis.Client
}

// NewClient accepts either a redis:// URL or a bare host:port and PINGs the
// server before returning.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (RedisClient, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &client{rdb: rdb}, nil
}

func options(cfg *config.RedisConfig) (*redis.Options, error) {
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return opts, nil
	}
	return &redis.Options{Addr: cfg.URL, Password: cfg.Password, DB: cfg.DB}, nil
}

// IsNil reports whether err is the go-redis "key does not exist" reply.
func IsNil(err error) bool { return errors.Is(err, redis.Nil) }

func (c *client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

func (c *client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

func (c *client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, key, ttl).Err()
}

func (c *client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (c *client) DelIfEquals(ctx context.Context, key, value string) error {
	return compareAndDelete.Run(ctx, c.rdb, []string{key}, value).Err()
}

func (c *client) Close() error { return c.rdb.Close() }
