// Command seed fills the database with demo users, groups and posts.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numGroups := flag.Int("groups", defaults.NumGroups, "Number of groups to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Maximum comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Follow attempts per user")
	groupless := flag.Float64("groupless", defaults.GrouplessRatio, "Share of posts without a group (0..1)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	flag.Parse()

	_ = godotenv.Load()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = cache.Close() }()

	s := seed.NewSeeder(db, seed.FactoryOptions{DryRun: *dryRun, Seed: *randSeed})
	res, err := s.Run(seed.Options{
		NumUsers:        *numUsers,
		NumGroups:       *numGroups,
		NumPosts:        *numPosts,
		CommentsPerPost: *comments,
		FollowsPerUser:  *follows,
		GrouplessRatio:  *groupless,
		Clean:           *shouldClean,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	// Seed rows bypass the services, so the cached index has to be dropped here.
	if rdb != nil && !*dryRun {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		index := cache.NewIndexCache(rdb, time.Duration(cfg.IndexCacheSeconds)*time.Second)
		if err := index.Clear(ctx); err != nil {
			log.Printf("⚠️  Could not clear the index cache: %v", err)
		}
	}

	log.Printf("✨ All done! %s", res)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
