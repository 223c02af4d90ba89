package models

import "time"

// Follow means UserID sees AuthorID's posts in their feed.
// A user can never follow themself, and each pair exists at most once.
type Follow struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_follows_user_author;check:check_not_self_follow,user_id <> author_id"`
	User      User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_follows_user_author;index"`
	Author    User `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
