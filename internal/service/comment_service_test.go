package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Create(t *testing.T) {
	ctx := context.Background()
	var created *models.Comment
	comments := &commentRepoStub{createFn: func(_ context.Context, c *models.Comment) error {
		created = c
		return nil
	}}
	posts := &postRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
		if id == 1 {
			return &models.Post{ID: 1, AuthorID: 9}, nil
		}
		return nil, models.NewNotFoundError("Post", id)
	}}
	svc := NewCommentService(comments, posts)

	c, err := svc.Create(ctx, CreateCommentInput{PostID: 1, AuthorID: 2, Text: " first! "})
	require.NoError(t, err)
	assert.Same(t, created, c)
	assert.Equal(t, "first!", c.Text)
	assert.Equal(t, uint(1), c.PostID)
	assert.Equal(t, uint(2), c.AuthorID)

	created = nil
	_, err = svc.Create(ctx, CreateCommentInput{PostID: 3, AuthorID: 2, Text: "lost"})
	assert.True(t, models.IsNotFound(err))
	assert.Nil(t, created)

	_, err = svc.Create(ctx, CreateCommentInput{PostID: 1, AuthorID: 2, Text: ""})
	assert.Equal(t, 400, models.HTTPStatus(err))

	_, err = svc.Create(ctx, CreateCommentInput{PostID: 1, Text: "anon"})
	assert.Equal(t, 401, models.HTTPStatus(err))
}

func TestCommentService_CountByPosts(t *testing.T) {
	comments := &commentRepoStub{countFn: func(_ context.Context, ids []uint) (map[uint]int, error) {
		assert.Equal(t, []uint{1, 2}, ids)
		return map[uint]int{1: 4}, nil
	}}
	counts, err := NewCommentService(comments, nil).CountByPosts(context.Background(), []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 4, counts[1])
	assert.Equal(t, 0, counts[2])
}
