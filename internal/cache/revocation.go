package cache

import (
	"context"
	"log/slog"
	"time"

	"yatube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// SessionRevocations records logged-out session IDs until their token would have expired.
type SessionRevocations struct {
	rdb *redis.Client
}

func NewSessionRevocations(rdb *redis.Client) *SessionRevocations {
	return &SessionRevocations{rdb: rdb}
}

// Revoke blacklists jti for ttl. Without Redis it is a no-op and the
// cleared cookie is the only logout signal.
func (r *SessionRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r.rdb == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked satisfies middleware.RevocationChecker.
func (r *SessionRevocations) IsRevoked(ctx context.Context, jti string) bool {
	if r.rdb == nil || jti == "" {
		return false
	}
	n, err := r.rdb.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "session revocation lookup failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}
