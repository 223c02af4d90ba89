package repository

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments", middleware.Logger)}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeErr(err, "comment conflict")
	}
	r.log.LogCreate(ctx, map[string]any{"comment_id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order(models.CommentOrder).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

type postCommentCount struct {
	PostID uint
	Total  int
}

// CountByPostIDs returns the number of comments for each post in one query.
// Posts without comments are absent from the map.
func (r *commentRepository) CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("count", "comments")()

	var rows []postCommentCount
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.PostID] = row.Total
	}
	return out, nil
}
