package forms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupLookupStub struct {
	groups map[uint]*models.Group
	err    error
}

func (s groupLookupStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	if s.err != nil {
		return nil, s.err
	}
	if g, ok := s.groups[id]; ok {
		return g, nil
	}
	return nil, models.NewNotFoundError("Group", id)
}

type inspectorStub struct{ err error }

func (s inspectorStub) Inspect([]byte, string) error { return s.err }

func TestErrors(t *testing.T) {
	errs := Errors{}
	assert.False(t, errs.Any())
	errs.Add("text", "a")
	errs.Add("text", "b")
	assert.True(t, errs.Any())
	assert.True(t, errs.Has("text"))
	assert.False(t, errs.Has("group"))
	assert.Equal(t, []string{"a", "b"}, errs.Get("text"))
}

func TestPostForm_Validate(t *testing.T) {
	ctx := context.Background()
	groups := groupLookupStub{groups: map[uint]*models.Group{3: {ID: 3, Slug: "g"}}}
	okImages := inspectorStub{}

	tests := []struct {
		name      string
		form      PostForm
		images    ImageInspector
		wantField string
		wantGroup *uint
	}{
		{name: "text only", form: PostForm{Text: "  hello  "}, images: okImages},
		{name: "with group", form: PostForm{Text: "hello", Group: "3"}, images: okImages, wantGroup: ptr(uint(3))},
		{name: "blank text", form: PostForm{Text: "   "}, images: okImages, wantField: "text"},
		{name: "unknown group", form: PostForm{Text: "hello", Group: "9"}, images: okImages, wantField: "group"},
		{name: "non numeric group", form: PostForm{Text: "hello", Group: "abc"}, images: okImages, wantField: "group"},
		{name: "rejected image", form: PostForm{Text: "hello", Image: testutil.FileHeader(t, "a.txt", "text/plain", []byte("nope"))}, images: inspectorStub{err: errors.New("bad")}, wantField: "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, errs := tt.form.Validate(ctx, groups, tt.images, 1<<20)
			if tt.wantField != "" {
				assert.Nil(t, res)
				assert.True(t, errs.Has(tt.wantField), "errors: %v", errs)
				return
			}
			require.False(t, errs.Any(), "errors: %v", errs)
			assert.Equal(t, "hello", res.Post.Text)
			assert.Equal(t, tt.wantGroup, res.Post.GroupID)
			assert.Zero(t, res.Post.ID)
			assert.Zero(t, res.Post.AuthorID)
			assert.Nil(t, res.Image)
		})
	}
}

func TestPostForm_ValidateImage(t *testing.T) {
	ctx := context.Background()
	content := testutil.SmallGIF(t)

	form := PostForm{Text: "with image", Image: testutil.FileHeader(t, "small.gif", "image/gif", content)}
	res, errs := form.Validate(ctx, groupLookupStub{}, inspectorStub{}, 1<<20)
	require.False(t, errs.Any())
	require.NotNil(t, res.Image)
	assert.Equal(t, "small.gif", res.Image.Filename)
	assert.Equal(t, "image/gif", res.Image.ContentType)
	assert.Equal(t, content, res.Image.Content)

	form.Image = testutil.FileHeader(t, "small.gif", "image/gif", content)
	_, errs = form.Validate(ctx, groupLookupStub{}, inspectorStub{}, 4)
	assert.True(t, errs.Has("image"))
}

func TestPostForm_GroupLookupFailure(t *testing.T) {
	form := PostForm{Text: "hello", Group: "1"}
	_, errs := form.Validate(context.Background(), groupLookupStub{err: errors.New("db down")}, inspectorStub{}, 0)
	assert.True(t, errs.Has(NonField))
}

func TestFromPost(t *testing.T) {
	gid := uint(5)
	f := FromPost(&models.Post{Text: "t", GroupID: &gid})
	assert.Equal(t, "5", f.Group)
	assert.Equal(t, uint(5), f.SelectedGroup())
	assert.Equal(t, uint(0), FromPost(&models.Post{Text: "t"}).SelectedGroup())
}

func TestCommentForm_Validate(t *testing.T) {
	c, errs := (&CommentForm{Text: " nice "}).Validate()
	require.False(t, errs.Any())
	assert.Equal(t, "nice", c.Text)
	assert.Zero(t, c.PostID)
	assert.Zero(t, c.AuthorID)

	c, errs = (&CommentForm{Text: ""}).Validate()
	assert.Nil(t, c)
	assert.True(t, errs.Has("text"))
}

func TestSignupForm_Validate(t *testing.T) {
	valid := SignupForm{Username: "leo", Password1: "war-and-peace", Password2: "war-and-peace"}
	assert.False(t, valid.Validate().Any())

	mismatch := valid
	mismatch.Password2 = "other-password"
	assert.True(t, mismatch.Validate().Has("password2"))

	badName := valid
	badName.Username = "two words"
	assert.True(t, badName.Validate().Has("username"))

	weak := valid
	weak.Password1, weak.Password2 = "12345678901", "12345678901"
	assert.True(t, weak.Validate().Has("password1"))
}

func TestLoginForm(t *testing.T) {
	f := LoginForm{}
	errs := f.Validate()
	assert.True(t, errs.Has("username"))
	assert.True(t, errs.Has("password"))

	errs = Errors{}
	f.Reject(errs)
	assert.True(t, errs.Has(NonField))
}

func TestBinders(t *testing.T) {
	app := fiber.New()
	var post *PostForm
	var comment *CommentForm
	var login *LoginForm
	app.Post("/post", func(c *fiber.Ctx) error { post = BindPost(c); return nil })
	app.Post("/comment", func(c *fiber.Ctx) error { comment = BindComment(c); return nil })
	app.Post("/login", func(c *fiber.Ctx) error { login = BindLogin(c); return nil })

	form := url.Values{"text": {"hello"}, "group": {"2"}}
	req := httptest.NewRequest(http.MethodPost, "/post", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, "2", post.Group)
	assert.Nil(t, post.Image)

	body, ct := testutil.MultipartBody(t, map[string]string{"text": "pic"}, "image", "small.gif", "image/gif", testutil.SmallGIF(t))
	req = httptest.NewRequest(http.MethodPost, "/post", body)
	req.Header.Set("Content-Type", ct)
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "pic", post.Text)
	require.NotNil(t, post.Image)
	assert.Equal(t, "small.gif", post.Image.Filename)

	req = httptest.NewRequest(http.MethodPost, "/comment", strings.NewReader("text=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "hi", comment.Text)

	req = httptest.NewRequest(http.MethodPost, "/login?next=/create/", strings.NewReader("username=+leo+&password=pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "leo", login.Username)
	assert.Equal(t, "/create/", login.Next)
}

func ptr[T any](v T) *T { return &v }
