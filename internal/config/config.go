// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	DBDriver                 string `mapstructure:"DB_DRIVER"`
	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	SQLitePath               string `mapstructure:"SQLITE_PATH"`

	RedisURL string `mapstructure:"REDIS_URL"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	SessionCookie   string `mapstructure:"SESSION_COOKIE"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	DisableCSRF     bool   `mapstructure:"DISABLE_CSRF"`

	PostsPerPage      int    `mapstructure:"POSTS_PER_PAGE"`
	IndexCacheSeconds int    `mapstructure:"INDEX_CACHE_SECONDS"`
	MediaRoot         string `mapstructure:"MEDIA_ROOT"`
	ImageMaxUploadMB  int    `mapstructure:"IMAGE_MAX_UPLOAD_MB"`

	DevBootstrapUser bool   `mapstructure:"DEV_BOOTSTRAP_USER"`
	DevUsername      string `mapstructure:"DEV_USERNAME"`
	DevPassword      string `mapstructure:"DEV_PASSWORD"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "yatube")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "yatube")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("SQLITE_PATH", "yatube.sqlite3")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("SESSION_COOKIE", "yatube_session")
	viper.SetDefault("SESSION_TTL_HOURS", 24*14)
	viper.SetDefault("DISABLE_CSRF", false)
	viper.SetDefault("POSTS_PER_PAGE", 10)
	viper.SetDefault("INDEX_CACHE_SECONDS", 20)
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("IMAGE_MAX_UPLOAD_MB", 5)
	viper.SetDefault("DEV_BOOTSTRAP_USER", false)
	viper.SetDefault("DEV_USERNAME", "yatube_dev")
	viper.SetDefault("DEV_PASSWORD", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.PostsPerPage <= 0 {
		return errors.New("POSTS_PER_PAGE must be positive")
	}
	if c.IndexCacheSeconds < 0 {
		return errors.New("INDEX_CACHE_SECONDS must not be negative")
	}
	if c.ImageMaxUploadMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_MB must be positive")
	}
	if c.MediaRoot == "" {
		return errors.New("MEDIA_ROOT is required")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DisableCSRF {
			return errors.New("DISABLE_CSRF cannot be set in production")
		}
		if c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must enable TLS in production")
			}
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
