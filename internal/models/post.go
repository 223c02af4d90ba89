package models

import "time"

// Post is an authored text entry with an optional group and image.
// Deleting the author deletes the post; deleting the group clears GroupID.
type Post struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index;not null"`
	Image    string    `gorm:"size:255"`
	AuthorID uint      `gorm:"not null;index"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GroupID  *uint     `gorm:"index"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`

	// CommentsCount is filled per page by a batched count, not persisted.
	CommentsCount int `gorm:"-"`
}

// Excerpt returns the first 15 characters of the text.
func (p *Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) <= 15 {
		return p.Text
	}
	return string(r[:15])
}

// IsAuthor reports whether userID wrote the post.
func (p *Post) IsAuthor(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}

// PostOrder is the default listing order, newest first.
const PostOrder = "posts.pub_date DESC, posts.id DESC"
