// Package bootstrap wires the process-wide runtime shared by the binaries.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves the Redis client nil, for tools that only touch SQL.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis. The returned client is
// nil when Redis is unreachable or skipped.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	var r *redis.Client
	if !opts.SkipRedis {
		cache.InitRedis(cfg.RedisURL)
		r = cache.GetClient()
	}

	if err := EnsureDevUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development user: %w", err)
	}

	return db, r, nil
}

// EnsureDevUser creates the configured development account when
// DEV_BOOTSTRAP_USER is enabled outside production. An existing account has
// its password reset to DEV_PASSWORD.
func EnsureDevUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !cfg.DevBootstrapUser || cfg.IsProduction() {
		return nil
	}

	username := strings.TrimSpace(cfg.DevUsername)
	if username == "" {
		username = "yatube_dev"
	}
	if cfg.DevPassword == "" {
		return errors.New("DEV_PASSWORD must be set when DEV_BOOTSTRAP_USER is enabled")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		findErr := tx.Where("username = ?", username).First(&user).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			user = models.User{
				Username: username,
				Email:    username + "@localhost",
				Password: string(hashed),
			}
			return tx.Create(&user).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&user).Update("password", string(hashed)).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development user ensured", slog.String("username", username))
	return nil
}
