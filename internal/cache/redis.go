// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// NewClient parses addr (host:port or a redis:// URL) and returns an
// instrumented client. It does not contact the server.
func NewClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	c := redis.NewClient(opts)
	c.AddHook(metricsHook{})
	return c, nil
}

// InitRedis initializes the shared Redis client with the given address.
// When the server is unreachable the shared client stays nil and callers
// fall back to in-process state.
func InitRedis(addr string) {
	c, err := NewClient(addr)
	if err != nil {
		middleware.Logger.Warn("Redis connection warning (continuing without cache)", slog.String("error", err.Error()))
		client = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis connection warning (continuing without cache)", slog.String("error", err.Error()))
		_ = c.Close()
		client = nil
		return
	}
	middleware.Logger.Info("Redis connected successfully", slog.String("addr", c.Options().Addr))
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}

// Close releases the shared client.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
