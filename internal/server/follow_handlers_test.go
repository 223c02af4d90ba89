package server

import (
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func (e *testEnv) followCount(t *testing.T, userID, authorID uint) int64 {
	t.Helper()
	var n int64
	e.db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&n)
	return n
}

func TestProfileFollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author")
	reader := testutil.CreateUser(t, env.db, "reader")
	cookie := env.cookieFor(t, reader)

	resp := env.get(t, "/profile/author/follow/", cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/author/", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), env.followCount(t, reader.ID, author.ID))

	// Following twice keeps a single row.
	env.get(t, "/profile/author/follow/", cookie)
	assert.Equal(t, int64(1), env.followCount(t, reader.ID, author.ID))

	page := body(t, env.get(t, "/profile/author/", cookie))
	assert.Contains(t, page, "Отписаться")
	assert.Contains(t, page, "Подписчиков: 1")

	resp = env.get(t, "/profile/author/unfollow/", cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Zero(t, env.followCount(t, reader.ID, author.ID))
	assert.Contains(t, body(t, env.get(t, "/profile/author/", cookie)), "Подписаться")

	// Unfollowing again is harmless.
	resp = env.get(t, "/profile/author/unfollow/", cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestProfileFollow_Self(t *testing.T) {
	env := newTestEnv(t)
	reader := testutil.CreateUser(t, env.db, "reader")
	cookie := env.cookieFor(t, reader)

	resp := env.get(t, "/profile/reader/follow/", cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Zero(t, env.followCount(t, reader.ID, reader.ID))

	page := body(t, env.get(t, "/profile/reader/", cookie))
	assert.NotContains(t, page, "Подписаться</a>")
	assert.NotContains(t, page, "Отписаться</a>")
}

func TestProfileFollow_UnknownAuthor(t *testing.T) {
	env := newTestEnv(t)
	reader := testutil.CreateUser(t, env.db, "reader")

	resp := env.get(t, "/profile/ghost/follow/", env.cookieFor(t, reader))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFollowIndex_ShowsOnlyFollowedAuthors(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author")
	follower := testutil.CreateUser(t, env.db, "follower")
	stranger := testutil.CreateUser(t, env.db, "stranger")
	other := testutil.CreateUser(t, env.db, "other")
	testutil.CreatePost(t, env.db, author, nil, "Пост для подписчиков")
	testutil.CreatePost(t, env.db, other, nil, "Чужой пост")

	env.get(t, "/profile/author/follow/", env.cookieFor(t, follower))

	page := body(t, env.get(t, "/follow/", env.cookieFor(t, follower)))
	assert.Contains(t, page, "Пост для подписчиков")
	assert.NotContains(t, page, "Чужой пост")
	assert.Equal(t, 1, postCount(page))

	page = body(t, env.get(t, "/follow/", env.cookieFor(t, stranger)))
	assert.NotContains(t, page, "Пост для подписчиков")
	assert.Equal(t, 0, postCount(page))
}
