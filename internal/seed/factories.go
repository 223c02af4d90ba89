// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "password123"

var slugUnsafe = regexp.MustCompile(`[^-a-z0-9_]+`)

// FactoryOptions tune the generated data.
type FactoryOptions struct {
	// DryRun assigns synthetic IDs instead of writing to the database.
	DryRun bool
	// MaxDays spreads publication dates over the last MaxDays days.
	MaxDays int
	// PasswordCost is the bcrypt cost of the shared password hash.
	PasswordCost int
	// Seed makes the generated content reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  FactoryOptions
	faker *gofakeit.Faker
	//nolint:gosec // Weak random number generator is fine for seeding
	rnd *rand.Rand

	passwordHash string
	usernames    map[string]struct{}
	slugs        map[string]struct{}
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rnd:       rand.New(rand.NewSource(seed)),
		usernames: map[string]struct{}{},
		slugs:     map[string]struct{}{},
		nextID:    1000,
	}
}

func (f *Factory) synthesizeID() uint {
	f.nextID++
	return f.nextID
}

func (f *Factory) hashedPassword() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.PasswordCost)
	if err != nil {
		return "", err
	}
	f.passwordHash = string(hashed)
	return f.passwordHash, nil
}

// BuildUser constructs an unsaved user with a unique username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}

	first, last := f.faker.FirstName(), f.faker.LastName()
	username := strings.ToLower(first + "_" + last)
	for i := 2; ; i++ {
		if _, taken := f.usernames[username]; !taken {
			break
		}
		username = fmt.Sprintf("%s_%s%d", strings.ToLower(first), strings.ToLower(last), i)
	}
	f.usernames[username] = struct{}{}

	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: first,
		LastName:  last,
		Password:  hashed,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		user.ID = f.synthesizeID()
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Slugify reduces title to the characters allowed in a group slug.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugUnsafe.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
	}
	if s == "" {
		s = "group"
	}
	return s
}

// CreateGroup builds and persists a group with a unique slug.
func (f *Factory) CreateGroup(overrides ...func(*models.Group)) (*models.Group, error) {
	title := f.faker.Hobby()
	slug := Slugify(title)
	base := slug
	for i := 2; ; i++ {
		if _, taken := f.slugs[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	f.slugs[slug] = struct{}{}

	group := &models.Group{
		Title:       title,
		Slug:        slug,
		Description: f.faker.Sentence(12),
	}
	for _, override := range overrides {
		override(group)
	}

	if f.opts.DryRun {
		group.ID = f.synthesizeID()
		log.Printf("[dry-run] CreateGroup: %s", group.Slug)
		return group, nil
	}
	if err := f.db.Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// BuildPost constructs an unsaved post by author with a publication date
// spread over the configured window. group may be nil.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:     f.faker.Paragraph(f.rnd.Intn(3)+1, f.rnd.Intn(4)+2, 10, "\n\n"),
		AuthorID: author.ID,
	}
	if group != nil {
		post.GroupID = &group.ID
	}

	daysBack := f.rnd.Intn(f.opts.MaxDays)
	hoursBack := f.rnd.Intn(24)
	minsBack := f.rnd.Intn(60)
	post.PubDate = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in batched inserts.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.synthesizeID()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(posts, 200).Error
}

// BuildComment constructs an unsaved comment on post by author.
func (f *Factory) BuildComment(author *models.User, post *models.Post) *models.Comment {
	created := post.PubDate.Add(time.Duration(f.rnd.Intn(72*60)) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	return &models.Comment{
		Text:     f.faker.Sentence(f.rnd.Intn(12) + 3),
		PostID:   post.ID,
		AuthorID: author.ID,
		Created:  created,
	}
}

// CreateCommentsBatch persists comments in batched inserts.
func (f *Factory) CreateCommentsBatch(comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, c := range comments {
			c.ID = f.synthesizeID()
		}
		log.Printf("[dry-run] CreateCommentsBatch: %d comments (no DB write)", len(comments))
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(comments, 200).Error
}

// CreateFollow subscribes user to author. Self-follows and duplicates are
// skipped; the result reports whether a row was written.
func (f *Factory) CreateFollow(user, author *models.User) (bool, error) {
	if user.ID == author.ID {
		return false, nil
	}
	if f.opts.DryRun {
		return true, nil
	}
	res := f.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "author_id"}}, DoNothing: true}).
		Create(&models.Follow{UserID: user.ID, AuthorID: author.ID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
