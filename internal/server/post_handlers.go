package server

import (
	"errors"
	"html/template"
	"log/slog"

	"yatube/internal/cache"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index renders the latest posts. The post list is served from the page
// cache, so readers may see it up to the cache TTL late when it was not
// invalidated by a write.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	raw := c.Query("page")
	key := cache.PageField(indexPageNumber(raw))

	body, ok := s.index.Get(ctx, key)
	if !ok {
		page, err := s.postService.ListAll(ctx, raw)
		if err != nil {
			return err
		}
		if err := s.attachCommentCounts(c, page.Items); err != nil {
			return err
		}
		body, err = s.renderFragment("includes/post_list", page)
		if err != nil {
			return err
		}
		s.index.Set(ctx, key, body)
	}

	return s.render(c, "posts/index", "Последние обновления на сайте", fiber.Map{
		//nolint:gosec // The fragment was produced by our own escaping templates
		"PostList": template.HTML(body),
	})
}

// GroupPosts lists the posts of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	group, err := s.groupService.GetBySlug(ctx, c.Params("slug"))
	if err != nil {
		return err
	}
	page, err := s.postService.ListByGroup(ctx, group.ID, c.Query("page"))
	if err != nil {
		return err
	}
	if err := s.attachCommentCounts(c, page.Items); err != nil {
		return err
	}
	return s.render(c, "posts/group_list", "Записи сообщества "+group.Title, fiber.Map{
		"Group": group,
		"Page":  page,
	})
}

// Profile lists an author's posts along with follow state and counters.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	page, err := s.postService.ListByAuthor(ctx, author.ID, c.Query("page"))
	if err != nil {
		return err
	}
	if err := s.attachCommentCounts(c, page.Items); err != nil {
		return err
	}
	stats, err := s.followService.Stats(ctx, author.ID)
	if err != nil {
		return err
	}

	uid, _ := middleware.CurrentUserID(c)
	following := false
	if uid != 0 && uid != author.ID {
		if following, err = s.followService.IsFollowing(ctx, uid, author.ID); err != nil {
			return err
		}
	}

	return s.render(c, "posts/profile", "Профайл пользователя "+author.FullName(), fiber.Map{
		"Author":    author,
		"Page":      page,
		"Stats":     stats,
		"Following": following,
		"IsOwner":   uid == author.ID,
	})
}

// PostDetail shows one post with its comments and the comment form.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.renderPostDetail(c, post, &forms.CommentForm{}, forms.Errors{})
}

func (s *Server) renderPostDetail(c *fiber.Ctx, post *models.Post, form *forms.CommentForm, errs forms.Errors) error {
	ctx := c.UserContext()
	comments, err := s.commentService.ListByPost(ctx, post.ID)
	if err != nil {
		return err
	}
	authorPosts, err := s.postService.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	uid, _ := middleware.CurrentUserID(c)
	return s.render(c, "posts/post_detail", "Пост "+post.Excerpt(), fiber.Map{
		"Post":             post,
		"Comments":         comments,
		"AuthorPostsCount": authorPosts,
		"IsAuthor":         post.IsAuthor(uid),
		"CommentForm":      form,
		"Errors":           errs,
	})
}

// PostCreatePage shows an empty post form.
func (s *Server) PostCreatePage(c *fiber.Ctx) error {
	return s.renderPostForm(c, &forms.PostForm{}, forms.Errors{}, nil)
}

// PostCreate saves a new post and sends the author to their profile.
func (s *Server) PostCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	uid, username := currentUser(c)

	form := forms.BindPost(c)
	result, errs := form.Validate(ctx, s.groupService, s.images, s.images.MaxUploadBytes())
	if errs.Any() {
		return s.renderPostForm(c, form, errs, nil)
	}

	_, err := s.postService.Create(ctx, service.CreatePostInput{
		AuthorID: uid,
		Text:     result.Post.Text,
		GroupID:  result.Post.GroupID,
		Image:    imageUpload(result.Image),
	})
	if err != nil {
		if errs, ok := formErrorFor(err); ok {
			return s.renderPostForm(c, form, errs, nil)
		}
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

// PostEditPage shows the edit form to the author of the post.
func (s *Server) PostEditPage(c *fiber.Ctx) error {
	post, err := s.editablePost(c)
	if err != nil {
		if errors.Is(err, errResponseWritten) {
			return nil
		}
		return err
	}
	return s.renderPostForm(c, forms.FromPost(post), forms.Errors{}, post)
}

// PostEdit applies the edit form and returns to the post page.
func (s *Server) PostEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	post, err := s.editablePost(c)
	if err != nil {
		if errors.Is(err, errResponseWritten) {
			return nil
		}
		return err
	}

	form := forms.BindPost(c)
	result, errs := form.Validate(ctx, s.groupService, s.images, s.images.MaxUploadBytes())
	if errs.Any() {
		return s.renderPostForm(c, form, errs, post)
	}

	uid, _ := currentUser(c)
	_, err = s.postService.Update(ctx, service.UpdatePostInput{
		UserID:  uid,
		PostID:  post.ID,
		Text:    result.Post.Text,
		GroupID: result.Post.GroupID,
		Image:   imageUpload(result.Image),
	})
	if err != nil {
		if models.IsForbidden(err) {
			return c.Redirect(postURL(post.ID), fiber.StatusFound)
		}
		if errs, ok := formErrorFor(err); ok {
			return s.renderPostForm(c, form, errs, post)
		}
		return err
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// PostDelete removes the post and sends the author to their profile.
func (s *Server) PostDelete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	uid, username := currentUser(c)
	if _, err := s.postService.Delete(c.UserContext(), service.DeletePostInput{UserID: uid, PostID: id}); err != nil {
		if models.IsForbidden(err) {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

// AddComment stores a comment by the current user. An invalid form re-renders
// the post page with the errors.
func (s *Server) AddComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.Get(ctx, id)
	if err != nil {
		return err
	}

	form := forms.BindComment(c)
	comment, errs := form.Validate()
	if errs.Any() {
		return s.renderPostDetail(c, post, form, errs)
	}

	uid, _ := currentUser(c)
	if _, err := s.commentService.Create(ctx, service.CreateCommentInput{
		PostID:   post.ID,
		AuthorID: uid,
		Text:     comment.Text,
	}); err != nil {
		return err
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// editablePost loads the post named in the route. A non-author is
// redirected to the post page and gets errResponseWritten.
func (s *Server) editablePost(c *fiber.Ctx) (*models.Post, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	uid, _ := currentUser(c)
	if !post.IsAuthor(uid) {
		middleware.Logger.InfoContext(c.UserContext(), "edit refused for non-author",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.Uint64("user_id", uint64(uid)),
		)
		if err := c.Redirect(postURL(post.ID), fiber.StatusFound); err != nil {
			return nil, err
		}
		return nil, errResponseWritten
	}
	return post, nil
}

func (s *Server) renderPostForm(c *fiber.Ctx, form *forms.PostForm, errs forms.Errors, post *models.Post) error {
	groups, err := s.groupService.List(c.UserContext())
	if err != nil {
		return err
	}
	title, action := "Новая запись", "/create/"
	if post != nil {
		title, action = "Редактировать запись", postURL(post.ID)+"edit/"
	}
	return s.render(c, "posts/create_post", title, fiber.Map{
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"IsEdit": post != nil,
		"Post":   post,
		"Action": action,
	})
}

func imageUpload(up *forms.Upload) *service.ImageUpload {
	if up == nil {
		return nil
	}
	return &service.ImageUpload{
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Content:     up.Content,
	}
}

// formErrorFor turns a validation error raised past the form into a
// form-level error so the page can be shown again.
func formErrorFor(err error) (forms.Errors, bool) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return nil, false
	}
	errs := forms.Errors{}
	errs.Add(forms.NonField, appErr.Message)
	return errs, true
}
