package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// RateLimiter counts requests per resource and identity in Redis.
// It is a no-op in the development and test environments.
type RateLimiter struct {
	rdb *redis.Client
	env string
}

// NewRateLimiter creates a limiter backed by rdb.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	if env == "" {
		env = "development"
	}
	return &RateLimiter{rdb: rdb, env: env}
}

// Allow increments the counter for the resource/id pair and reports whether
// it is still within limit for the current window.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	switch l.env {
	case "test", "development":
		return true, nil
	}

	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing limit requests per window for
// the named resource. Requests are keyed by session user, falling back to IP.
func (l *RateLimiter) Limit(name string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Rendering a form is free; only submissions count.
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if uid, ok := CurrentUserID(c); ok {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := l.Allow(c.UserContext(), name, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("resource", name),
					slog.String("error", err.Error()),
				)
				return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable")
			}
			return c.Next()
		}

		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts, please try again later")
		}
		return c.Next()
	}
}
