package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	PostID   uint
	AuthorID uint
	Text     string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// Create attaches a comment to an existing post.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{Text: text, PostID: in.PostID, AuthorID: in.AuthorID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}

func (s *CommentService) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// CountByPosts returns comment totals keyed by post id; missing posts have zero.
func (s *CommentService) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	return s.commentRepo.CountByPostIDs(ctx, postIDs)
}
