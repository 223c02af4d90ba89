// Package models contains the persisted domain entities and application errors.
package models

import "time"

// User is an account that can author posts, comment and follow other users.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"size:150;uniqueIndex;not null"`
	Email     string    `gorm:"size:254"`
	FirstName string    `gorm:"size:150"`
	LastName  string    `gorm:"size:150"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns "First Last", or the username when both are empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
