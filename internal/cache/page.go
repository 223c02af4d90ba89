package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// PageCache stores rendered page fragments for a bounded time.
// Lookups never fail: a backend error is reported as a miss.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Clear(ctx context.Context) error
}

// RedisPageCache keeps every entry as a field of a single hash so a
// clear is one DEL. The hash expires ttl after the first entry of a
// generation is written, so no entry outlives ttl.
type RedisPageCache struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisPageCache returns a page cache backed by the hash named namespace.
func NewRedisPageCache(rdb *redis.Client, namespace string, ttl time.Duration) *RedisPageCache {
	if namespace == "" {
		namespace = IndexPageNamespace
	}
	return &RedisPageCache{rdb: rdb, namespace: namespace, ttl: ttl}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	body, err := c.rdb.HGet(ctx, c.namespace, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "page cache read failed",
				slog.String("namespace", c.namespace), slog.String("error", err.Error()))
		}
		observability.PageCacheLookups.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}
	observability.PageCacheLookups.WithLabelValues("redis", "hit").Inc()
	return body, true
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte) {
	if c.ttl <= 0 {
		return
	}
	if err := c.rdb.HSet(ctx, c.namespace, key, body).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "page cache write failed",
			slog.String("namespace", c.namespace), slog.String("error", err.Error()))
		return
	}
	// TTL is -1 while the hash has no expiry yet.
	remaining, err := c.rdb.TTL(ctx, c.namespace).Result()
	if err == nil && remaining >= 0 {
		return
	}
	if err == nil {
		err = c.rdb.Expire(ctx, c.namespace, c.ttl).Err()
	}
	if err != nil {
		// A hash without expiry would serve stale pages forever; drop it.
		middleware.Logger.WarnContext(ctx, "page cache expiry failed, dropping generation",
			slog.String("namespace", c.namespace), slog.String("error", err.Error()))
		if derr := c.rdb.Del(ctx, c.namespace).Err(); derr != nil {
			middleware.Logger.WarnContext(ctx, "page cache drop failed",
				slog.String("namespace", c.namespace), slog.String("error", derr.Error()))
		}
	}
}

func (c *RedisPageCache) Clear(ctx context.Context) error {
	observability.PageCacheClears.Inc()
	return c.rdb.Del(ctx, c.namespace).Err()
}

// MemoryPageCache is the in-process fallback used without Redis.
type MemoryPageCache struct {
	lru *expirable.LRU[string, []byte]
	ttl time.Duration
}

// NewMemoryPageCache returns an LRU page cache holding at most size entries for ttl each.
func NewMemoryPageCache(size int, ttl time.Duration) *MemoryPageCache {
	if size <= 0 {
		size = MemoryPageEntries
	}
	return &MemoryPageCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl), ttl: ttl}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	body, ok := c.lru.Get(key)
	if !ok {
		observability.PageCacheLookups.WithLabelValues("memory", "miss").Inc()
		return nil, false
	}
	observability.PageCacheLookups.WithLabelValues("memory", "hit").Inc()
	return body, true
}

func (c *MemoryPageCache) Set(_ context.Context, key string, body []byte) {
	if c.ttl <= 0 {
		return
	}
	stored := make([]byte, len(body))
	copy(stored, body)
	c.lru.Add(key, stored)
}

func (c *MemoryPageCache) Clear(_ context.Context) error {
	observability.PageCacheClears.Inc()
	c.lru.Purge()
	return nil
}

// NewIndexCache picks the Redis page cache when rdb is available and the
// memory fallback otherwise.
func NewIndexCache(rdb *redis.Client, ttl time.Duration) PageCache {
	if rdb == nil {
		middleware.Logger.Info("index page cache using in-process memory")
		return NewMemoryPageCache(MemoryPageEntries, ttl)
	}
	return NewRedisPageCache(rdb, IndexPageNamespace, ttl)
}
