// Command migrate runs schema operations for the application database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"yatube/internal/config"
	"yatube/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <createdb|up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	if cmd == "createdb" {
		created, err := database.EnsureDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		if created {
			log.Printf("database %q created", cfg.DBName)
		} else {
			log.Printf("database %q already exists", cfg.DBName)
		}
		return nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch cmd {
	case "up":
		if err := database.ApplySchema(ctx, db); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
		log.Println("schema applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		pending := status.Pending()
		log.Printf("driver=%s tables=%d pending=%d", status.Driver, len(status.Tables), len(pending))
		for _, table := range pending {
			log.Printf("pending: %s", table)
		}
	default:
		return usage()
	}

	return nil
}
