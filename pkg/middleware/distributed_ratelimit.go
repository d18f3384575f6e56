package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/orgdex/orgdex/pkg/httputil"
	"github.com/orgdex/orgdex/pkg/observability"
)

// DistributedRateLimiter implements rate limiting backed by Redis, so limits
// hold across instances of the service.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a Redis-backed rate limiter
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed using a Redis counter per window.
// On Redis errors it fails open and reports the error to the caller.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Remaining returns the number of remaining requests in the window
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := rl.redis.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow, nil
	} else if err != nil {
		return 0, err
	}

	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TTL returns the time until the rate limit window resets
func (rl *DistributedRateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Result()
}

// Reset clears the rate limit for a key
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// DistributedRateLimitMiddleware provides HTTP rate limiting shared across
// instances via Redis, failing open when Redis is unavailable.
type DistributedRateLimitMiddleware struct {
	limiter *DistributedRateLimiter
	logger  *observability.Logger
}

// NewDistributedRateLimitMiddleware creates a Redis-backed rate limit middleware
func NewDistributedRateLimitMiddleware(redisClient *redis.Client, config *RateLimitConfig, logger *observability.Logger) *DistributedRateLimitMiddleware {
	return &DistributedRateLimitMiddleware{
		limiter: NewDistributedRateLimiter(redisClient, config, "ratelimit"),
		logger:  logger,
	}
}

// Handler wraps an HTTP handler with distributed rate limiting
func (m *DistributedRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := limitKey(r)

		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			// Fail open: a Redis outage must not take search down with it
			m.logger.WithError(err).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			if ttl, err := m.limiter.TTL(ctx, key); err == nil && ttl > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			httputil.WriteTooManyRequests(w, "rate limit exceeded")
			return
		}

		if remaining, err := m.limiter.Remaining(ctx, key); err == nil {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		next.ServeHTTP(w, r)
	})
}
