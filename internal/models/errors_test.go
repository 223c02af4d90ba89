package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Post", 7), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError("Group", "x")), http.StatusNotFound},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"forbidden", NewForbiddenError("nope"), http.StatusForbidden},
		{"conflict", NewConflictError("dup", nil), http.StatusConflict},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewConflictError("follow", ErrSelfFollow)
	assert.ErrorIs(t, err, ErrSelfFollow)
	assert.Contains(t, err.Error(), ErrSelfFollow.Error())
	assert.False(t, IsNotFound(err))
	assert.True(t, IsConflict(err))
	assert.True(t, IsNotFound(NewNotFoundError("User", "ghost")))
}

func TestPostHelpers(t *testing.T) {
	p := &Post{Text: "Тестовый пост длиннее пятнадцати", AuthorID: 3}
	assert.Equal(t, "Тестовый пост д", p.Excerpt())
	assert.True(t, p.IsAuthor(3))
	assert.False(t, p.IsAuthor(4))
	assert.False(t, (&Post{}).IsAuthor(0))

	assert.Equal(t, "leo", (&User{Username: "leo"}).FullName())
	assert.Equal(t, "Leo Tolstoy", (&User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}).FullName())
}
