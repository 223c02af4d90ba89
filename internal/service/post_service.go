package service

import (
	"context"
	"log/slog"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/paginator"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ImageStore persists post images.
type ImageStore interface {
	Save(up *ImageUpload) (StoredImage, error)
	Remove(rel string)
}

type PostService struct {
	postRepo repository.PostRepository
	images   ImageStore
	index    cache.PageCache
	perPage  int
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *ImageUpload
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Text    string
	GroupID *uint
	Image   *ImageUpload
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// NewPostService wires post persistence. index may be nil when nothing is cached.
func NewPostService(postRepo repository.PostRepository, images ImageStore, index cache.PageCache, perPage int) *PostService {
	if perPage <= 0 {
		perPage = 10
	}
	return &PostService{postRepo: postRepo, images: images, index: index, perPage: perPage}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Create", attribute.Int64("author_id", int64(in.AuthorID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}

	post = &models.Post{Text: text, AuthorID: in.AuthorID, GroupID: in.GroupID}
	var stored StoredImage
	if in.Image != nil {
		if stored, err = s.images.Save(in.Image); err != nil {
			return nil, err
		}
		post.Image = stored.Path
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardImage(stored)
		return nil, err
	}
	observability.PostWrites.WithLabelValues("create").Inc()
	s.InvalidateIndex(ctx)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// Update changes an existing post. Only its author may edit it, and a post
// keeps its image unless a new one is uploaded.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Update", attribute.Int64("post_id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthor(in.UserID) {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}

	post.Text = text
	post.GroupID = in.GroupID
	var stored StoredImage
	if in.Image != nil {
		if stored, err = s.images.Save(in.Image); err != nil {
			return nil, err
		}
		post.Image = stored.Path
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		s.discardImage(stored)
		return nil, err
	}
	observability.PostWrites.WithLabelValues("update").Inc()
	s.InvalidateIndex(ctx)
	return post, nil
}

// Delete removes a post and its comments. Only its author may delete it.
func (s *PostService) Delete(ctx context.Context, in DeletePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Delete", attribute.Int64("post_id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthor(in.UserID) {
		return nil, models.NewForbiddenError("Only the author can delete this post")
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	observability.PostWrites.WithLabelValues("delete").Inc()
	s.InvalidateIndex(ctx)
	return post, nil
}

func (s *PostService) ListAll(ctx context.Context, rawPage string) (paginator.Page[*models.Post], error) {
	return s.list(ctx, repository.PostFilter{}, rawPage)
}

func (s *PostService) ListByGroup(ctx context.Context, groupID uint, rawPage string) (paginator.Page[*models.Post], error) {
	return s.list(ctx, repository.PostFilter{GroupID: groupID}, rawPage)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, rawPage string) (paginator.Page[*models.Post], error) {
	return s.list(ctx, repository.PostFilter{AuthorID: authorID}, rawPage)
}

// CountByAuthor returns how many posts authorID has written.
func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.postRepo.Count(ctx, repository.PostFilter{AuthorID: authorID})
}

// Feed lists posts by the authors userID follows.
func (s *PostService) Feed(ctx context.Context, userID uint, rawPage string) (paginator.Page[*models.Post], error) {
	return s.list(ctx, repository.PostFilter{FollowerID: userID}, rawPage)
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter, rawPage string) (paginator.Page[*models.Post], error) {
	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return paginator.Page[*models.Post]{}, err
	}
	window := paginator.New(total, s.perPage).Page(rawPage)
	if total == 0 {
		return paginator.Page[*models.Post]{Window: window}, nil
	}
	posts, err := s.postRepo.List(ctx, filter, window.Limit(), window.Offset())
	if err != nil {
		return paginator.Page[*models.Post]{}, err
	}
	return paginator.Page[*models.Post]{Window: window, Items: posts}, nil
}

// discardImage removes files saved for a write that did not commit. Files
// that existed before the write may belong to other posts and are kept.
func (s *PostService) discardImage(stored StoredImage) {
	if stored.Created {
		s.images.Remove(stored.Path)
	}
}

// InvalidateIndex drops every cached index page.
func (s *PostService) InvalidateIndex(ctx context.Context) {
	if s.index == nil {
		return
	}
	if err := s.index.Clear(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "index cache clear failed", slog.String("error", err.Error()))
	}
}
