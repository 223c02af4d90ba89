package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB returns a migrated in-memory SQLite database private to t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:yatube_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "!unusable"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func CreateGroup(t *testing.T, db *gorm.DB, title, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: title, Slug: slug, Description: "Тестовое описание"}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

// CreatePost inserts a post; group may be nil.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	if err := db.Omit("Author", "Group").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
