package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts requests in clock-aligned fixed windows.
// Each window gets its own counter key, so a counter whose EXPIRE was lost
// stops mattering once the window rolls over.
type RateLimiter struct {
	client RedisClient
	now    func() time.Time
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow reports whether one more request under key fits in the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	bucket := r.now().UnixNano() / int64(window)
	counter := fmt.Sprintf("%s:%d", key, bucket)

	count, err := r.client.Incr(ctx, counter)
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, counter, window); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= int64(limit), nil
}

// ClientRouteKey namespaces a limiter key by client and route.
func ClientRouteKey(clientID, route string) string {
	return fmt.Sprintf("rate_limit:%s:%s", clientID, route)
}
