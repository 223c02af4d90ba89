package seed

import (
	"fmt"
	"log"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumGroups       int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	// Clean removes existing content before seeding.
	Clean bool
	// GrouplessRatio is the share of posts published without a group, 0..1.
	GrouplessRatio float64
}

// DefaultOptions are used by the seed command when no flags are given.
func DefaultOptions() Options {
	return Options{
		NumUsers:        12,
		NumGroups:       4,
		NumPosts:        60,
		CommentsPerPost: 3,
		FollowsPerUser:  3,
		GrouplessRatio:  0.3,
	}
}

// Result summarises what a seeding run wrote.
type Result struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

func (r Result) String() string {
	return fmt.Sprintf("%d users, %d groups, %d posts, %d comments, %d follows",
		r.Users, r.Groups, r.Posts, r.Comments, r.Follows)
}

// Seeder fills the database with demo users, groups and posts.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder writing through db.
func NewSeeder(db *gorm.DB, fopts FactoryOptions) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, fopts)}
}

// Factory exposes the underlying entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// Run populates the database according to opts.
func (s *Seeder) Run(opts Options) (Result, error) {
	var res Result
	log.Printf("🌱 Seeding %d users, %d groups and %d posts...", opts.NumUsers, opts.NumGroups, opts.NumPosts)

	if opts.Clean && !s.factory.opts.DryRun {
		if err := ClearAll(s.db); err != nil {
			return res, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return res, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	if len(users) == 0 {
		log.Println("no users requested, nothing else to seed")
		return res, nil
	}

	groups := make([]*models.Group, 0, opts.NumGroups)
	for i := 0; i < opts.NumGroups; i++ {
		g, err := s.factory.CreateGroup()
		if err != nil {
			return res, fmt.Errorf("failed to create group: %w", err)
		}
		groups = append(groups, g)
	}
	res.Groups = len(groups)

	rnd := s.factory.rnd
	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[rnd.Intn(len(users))]
		var group *models.Group
		if len(groups) > 0 && rnd.Float64() >= opts.GrouplessRatio {
			group = groups[rnd.Intn(len(groups))]
		}
		posts = append(posts, s.factory.BuildPost(author, group))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = len(posts)

	var comments []*models.Comment
	for _, p := range posts {
		if opts.CommentsPerPost <= 0 {
			break
		}
		n := rnd.Intn(opts.CommentsPerPost + 1)
		for j := 0; j < n; j++ {
			comments = append(comments, s.factory.BuildComment(users[rnd.Intn(len(users))], p))
		}
	}
	if err := s.factory.CreateCommentsBatch(comments); err != nil {
		return res, fmt.Errorf("failed to create comments: %w", err)
	}
	res.Comments = len(comments)

	for _, u := range users {
		for j := 0; j < opts.FollowsPerUser && len(users) > 1; j++ {
			ok, err := s.factory.CreateFollow(u, users[rnd.Intn(len(users))])
			if err != nil {
				return res, fmt.Errorf("failed to create follow: %w", err)
			}
			if ok {
				res.Follows++
			}
		}
	}

	log.Printf("🎉 Seeding completed: %s", res)
	return res, nil
}

// ClearAll deletes every row of the content tables, children first.
func ClearAll(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
