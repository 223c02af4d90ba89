// Package main provides admin management utilities for yatube.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/joho/godotenv"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin group-create <slug> <title> [description]  - Create a group")
	fmt.Println("  go run ./cmd/admin group-list                                  - List all groups")
	fmt.Println("  go run ./cmd/admin group-delete <slug>                         - Delete a group, keeping its posts")
	fmt.Println("  go run ./cmd/admin user-delete <username>                      - Delete a user and their content")
	fmt.Println("  go run ./cmd/admin cache-clear                                 - Drop the cached index pages")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = cache.Close() }()

	index := cache.NewIndexCache(rdb, time.Duration(cfg.IndexCacheSeconds)*time.Second)
	groups := service.NewGroupService(repository.NewGroupRepository(db), index)
	users := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "group-create":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin group-create <slug> <title> [description]")
			os.Exit(1)
		}
		description := ""
		if len(os.Args) > 4 {
			description = strings.Join(os.Args[4:], " ")
		}
		g, err := groups.Create(ctx, service.CreateGroupInput{
			Slug:        os.Args[2],
			Title:       os.Args[3],
			Description: description,
		})
		if err != nil {
			log.Fatalf("Failed to create group: %v", err)
		}
		fmt.Printf("Created group %q (/group/%s/)\n", g.Title, g.Slug)

	case "group-list":
		list, err := groups.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list groups: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tTITLE")
		for _, g := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		_ = w.Flush()

	case "group-delete":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin group-delete <slug>")
			os.Exit(1)
		}
		if err := groups.Delete(ctx, os.Args[2]); err != nil {
			exitOnLookup("group", os.Args[2], err)
		}
		fmt.Printf("Deleted group %s\n", os.Args[2])

	case "user-delete":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin user-delete <username>")
			os.Exit(1)
		}
		if err := users.Delete(ctx, os.Args[2]); err != nil {
			exitOnLookup("user", os.Args[2], err)
		}
		if err := index.Clear(ctx); err != nil {
			log.Printf("Failed to clear index cache: %v", err)
		}
		fmt.Printf("Deleted user %s\n", os.Args[2])

	case "cache-clear":
		if err := index.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear index cache: %v", err)
		}
		fmt.Println("Index cache cleared")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitOnLookup(kind, key string, err error) {
	if models.IsNotFound(err) {
		fmt.Printf("No %s named %s\n", kind, key)
		os.Exit(1)
	}
	log.Fatalf("Failed to delete %s %s: %v", kind, key, err)
}
