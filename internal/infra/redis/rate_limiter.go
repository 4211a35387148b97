package redis

import (
	"context"
	"time"

	"media-job-intake/internal/domain/ports/adapter"
)

var _ adapter.SubmissionLimiter = (*RateLimiter)(nil)

const keyPrefix = "rate_limit:"

// RateLimiter is a fixed-window counter: the first hit in a window sets the
// expiry, every hit increments.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = keyPrefix + key
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	} else if ttl, err := r.client.TTL(ctx, key); err == nil && ttl < 0 {
		// a crash between INCR and EXPIRE would otherwise pin the key forever
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}
