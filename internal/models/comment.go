package models

import "time"

// Comment is a reply to a post. It is removed with its post or its author.
type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	Created  time.Time `gorm:"autoCreateTime;index;not null"`
	PostID   uint      `gorm:"not null;index"`
	Post     Post      `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID uint      `gorm:"not null;index"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// CommentOrder is the default listing order, newest first.
const CommentOrder = "comments.created DESC, comments.id DESC"
