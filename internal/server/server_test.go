package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:               "test",
		Port:              "0",
		DBDriver:          "sqlite",
		JWTSecret:         "test-secret-with-enough-length-0123456789",
		SessionCookie:     "yatube_session",
		SessionTTLHours:   1,
		DisableCSRF:       true,
		PostsPerPage:      10,
		IndexCacheSeconds: 20,
		MediaRoot:         t.TempDir(),
		ImageMaxUploadMB:  1,
	}
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewTestDB(t)
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	srv.userService.WithCost(bcrypt.MinCost)

	return &testEnv{srv: srv, app: srv.NewApp(), db: db, mr: mr}
}

// cookieFor returns a Cookie header value holding a fresh session for u.
func (e *testEnv) cookieFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := e.srv.sessions.Issue(u.ID, u.Username)
	require.NoError(t, err)
	return e.srv.sessions.CookieName() + "=" + token
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookie string) *http.Response {
	t.Helper()
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, target, cookie string) *http.Response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil), cookie)
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookie)
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func postCount(html string) int {
	return strings.Count(html, `<article class="post"`)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health/live", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.get(t, "/health/ready", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(body(t, resp)), &payload))
	assert.Equal(t, "healthy", payload.Status)
	assert.Equal(t, "healthy", payload.Checks["database"])
	assert.Equal(t, "healthy", payload.Checks["redis"])
}

func TestReadinessWithoutRedisIsDegraded(t *testing.T) {
	cfg := testConfig(t)
	srv, err := NewServerWithDeps(cfg, testutil.NewTestDB(t), nil)
	require.NoError(t, err)
	app := srv.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `"degraded"`)
}

func TestUnknownPagesRender404(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "author")

	for _, target := range []string{
		"/unexisting_page/",
		"/group/missing/",
		"/profile/ghost/",
		"/posts/999/",
		"/posts/abc/",
	} {
		t.Run(target, func(t *testing.T) {
			resp := env.get(t, target, "")
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			assert.Contains(t, body(t, resp), "Страница не найдена")
		})
	}
}

func TestLoginRequiredRedirects(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author")
	post := testutil.CreatePost(t, env.db, author, nil, "Тестовый пост")

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/create/"},
		{http.MethodPost, "/create/"},
		{http.MethodGet, "/follow/"},
		{http.MethodGet, postURL(post.ID) + "edit/"},
		{http.MethodPost, postURL(post.ID) + "comment/"},
		{http.MethodGet, "/profile/author/follow/"},
		{http.MethodGet, "/profile/author/unfollow/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			resp := env.do(t, httptest.NewRequest(tt.method, tt.target, nil), "")
			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, "/auth/login/?next="+tt.target, resp.Header.Get("Location"))
		})
	}
}

func TestCSRFRejectsFormWithoutToken(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.DisableCSRF = false })

	resp := env.get(t, "/auth/login/", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `name="csrf_token" value="`)

	resp = env.postForm(t, "/auth/login/", url.Values{"username": {"a"}, "password": {"b"}}, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Ошибка проверки CSRF")
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/static/css/yatube.css", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), ".navbar")
}
