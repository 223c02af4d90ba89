package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db)).WithCost(bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: " leo ", FirstName: "Leo", Password: "war-and-peace"})
	require.NoError(t, err)
	assert.Equal(t, "leo", user.Username)
	assert.NotEqual(t, "war-and-peace", user.Password)

	_, err = svc.Register(ctx, RegisterInput{Username: "leo", Password: "other-pass"})
	assert.Equal(t, 409, models.HTTPStatus(err))

	got, err := svc.Authenticate(ctx, "leo", "war-and-peace")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "leo", "wrong")
	assert.Equal(t, 401, models.HTTPStatus(err))
	_, err = svc.Authenticate(ctx, "nobody", "wrong")
	assert.Equal(t, 401, models.HTTPStatus(err))

	require.NoError(t, svc.Delete(ctx, "leo"))
	_, err = svc.GetByUsername(ctx, "leo")
	assert.True(t, models.IsNotFound(err))
}

func TestFollowService(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	svc := NewFollowService(repository.NewFollowRepository(db), users)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	author := testutil.CreateUser(t, db, "author")

	_, err := svc.Follow(ctx, reader.ID, "author")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, reader.ID, "author")
	require.NoError(t, err)

	ok, err := svc.IsFollowing(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stats, err := svc.Stats(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStats{Followers: 1, Following: 0}, stats)

	t.Run("self follow is a no-op", func(t *testing.T) {
		_, err := svc.Follow(ctx, reader.ID, "reader")
		require.NoError(t, err)
		ok, err := svc.IsFollowing(ctx, reader.ID, reader.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		var n int64
		db.Model(&models.Follow{}).Where("user_id = author_id").Count(&n)
		assert.Zero(t, n)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := svc.Follow(ctx, reader.ID, "ghost")
		assert.True(t, models.IsNotFound(err))
		_, err = svc.Unfollow(ctx, reader.ID, "ghost")
		assert.True(t, models.IsNotFound(err))
	})

	_, err = svc.Unfollow(ctx, reader.ID, "author")
	require.NoError(t, err)
	_, err = svc.Unfollow(ctx, reader.ID, "author")
	require.NoError(t, err)
	ok, err = svc.IsFollowing(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupService(t *testing.T) {
	db := testutil.NewTestDB(t)
	index := &pageCacheStub{}
	svc := NewGroupService(repository.NewGroupRepository(db), index)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateGroupInput{Title: "", Slug: "x"})
	assert.Equal(t, 400, models.HTTPStatus(err))
	_, err = svc.Create(ctx, CreateGroupInput{Title: "X", Slug: "bad slug"})
	assert.Equal(t, 400, models.HTTPStatus(err))

	g, err := svc.Create(ctx, CreateGroupInput{Title: " Cats ", Slug: "cats", Description: "meow"})
	require.NoError(t, err)
	assert.Equal(t, "Cats", g.Title)

	got, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "cats", got.Slug)

	require.NoError(t, svc.Delete(ctx, "cats"))
	assert.Equal(t, 1, index.Clears())
	assert.True(t, models.IsNotFound(svc.Delete(ctx, "cats")))
}
