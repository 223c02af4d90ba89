// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}@.+_-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	digitsOnly    = regexp.MustCompile(`^[0-9]+$`)
)

const (
	MaxUsernameLength = 150
	MaxSlugLength     = 50
	MaxTitleLength    = 200
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password, username string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}
	if digitsOnly.MatchString(password) {
		return fmt.Errorf("password cannot be entirely numeric")
	}
	if username != "" && strings.EqualFold(password, username) {
		return fmt.Errorf("password is too similar to the username")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, digits and @/./+/-/_")
	}
	return nil
}

// ValidateEmail checks basic email format. An empty email is allowed.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateSlug checks a group slug.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > MaxSlugLength {
		return fmt.Errorf("slug must be 1-%d characters", MaxSlugLength)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug can only contain letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateTitle checks a group title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLength)
	}
	return nil
}
