package database

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"yatube/internal/config"
	"yatube/internal/middleware"

	"github.com/jackc/pgx/v5"
)

var validDBName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureDatabase connects to the postgres maintenance database and creates
// cfg.DBName when it is missing. It reports whether the database was created.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	if cfg.DBDriver == "sqlite" {
		return false, nil
	}
	if !validDBName.MatchString(cfg.DBName) {
		return false, fmt.Errorf("refusing to create database with name %q", cfg.DBName)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, PostgresDSN(cfg, "postgres"))
	if err != nil {
		return false, fmt.Errorf("connect to maintenance database: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	var exists bool
	if err := conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database %q: %w", cfg.DBName, err)
	}
	if exists {
		return false, nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.DBName}.Sanitize()); err != nil {
		return false, fmt.Errorf("create database %q: %w", cfg.DBName, err)
	}
	middleware.Logger.InfoContext(ctx, "Database created", slog.String("name", cfg.DBName))
	return true, nil
}
