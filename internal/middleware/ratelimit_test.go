package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("bypassed outside production-like environments", func(t *testing.T) {
		for _, env := range []string{"test", "development", ""} {
			l := NewRateLimiter(nil, env)
			allowed, err := l.Allow(ctx, "login", "ip:1", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("nil redis is an error", func(t *testing.T) {
		l := NewRateLimiter(nil, "production")
		allowed, err := l.Allow(ctx, "login", "ip:1", 1, time.Minute)
		assert.Error(t, err)
		assert.False(t, allowed)
	})

	t.Run("counts within window", func(t *testing.T) {
		mr, rdb := newMiniredisClient(t)
		l := NewRateLimiter(rdb, "production")

		for i := 0; i < 2; i++ {
			allowed, err := l.Allow(ctx, "login", "ip:1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := l.Allow(ctx, "login", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		assert.True(t, mr.Exists("rl:login:ip:1"))
		mr.FastForward(2 * time.Minute)

		allowed, err = l.Allow(ctx, "login", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestRateLimiter_Limit(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	l := NewRateLimiter(rdb, "production")

	app := fiber.New()
	app.All("/auth/login/", l.Limit("login", 1, time.Minute, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		method string
		status int
	}{
		{"get is not counted", http.MethodGet, http.StatusOK},
		{"first post passes", http.MethodPost, http.StatusOK},
		{"second post is limited", http.MethodPost, http.StatusTooManyRequests},
		{"get still renders", http.MethodGet, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, "/auth/login/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRateLimiter_FailClosed(t *testing.T) {
	l := NewRateLimiter(nil, "production")

	app := fiber.New()
	app.Post("/auth/signup/", l.Limit("signup", 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/signup/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
