package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		username string
		wantErr  bool
	}{
		{"Valid", "quiet-river", "leo", false},
		{"Exactly Min Length", "abcdefg1", "leo", false},
		{"Exactly Max Length", strings.Repeat("b", 128), "leo", false},
		{"Too Short", "abc12", "leo", true},
		{"Too Long", strings.Repeat("b", 129), "leo", true},
		{"Digits Only", "1234567890", "leo", true},
		{"Same As Username", "TolstoyLeo", "tolstoyleo", true},
		{"Unicode Characters", "Ångström!", "leo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Cyrillic", "Лев", false},
		{"Punctuation Allowed", "a.b+c@d-e", false},
		{"Empty", "", true},
		{"Space", "two words", true},
		{"Slash", "a/b", true},
		{"Too Long", strings.Repeat("u", 151), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("leo@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestValidateSlugAndTitle(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateSlug("test-slug_1"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("with space"))
	assert.Error(t, ValidateSlug(strings.Repeat("s", 51)))

	assert.NoError(t, ValidateTitle("Группа"))
	assert.Error(t, ValidateTitle("   "))
	assert.Error(t, ValidateTitle(strings.Repeat("t", 201)))
}
