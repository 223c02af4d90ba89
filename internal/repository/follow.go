package repository

import (
	"context"
	"errors"
	"fmt"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores follower to author edges.
type FollowRepository interface {
	// Create inserts the edge and reports whether a new row was written.
	Create(ctx context.Context, userID, authorID uint) (bool, error)
	// Delete removes the edge and reports whether a row existed.
	Delete(ctx context.Context, userID, authorID uint) (bool, error)
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows", middleware.Logger)}
}

func (r *followRepository) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == authorID {
		return false, models.NewConflictError("cannot follow", models.ErrSelfFollow)
	}
	defer observability.TrackQuery("create", "follows")()

	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Create(follow)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "create")
		// follows carries a single CHECK: check_not_self_follow.
		if errors.Is(res.Error, gorm.ErrCheckConstraintViolated) {
			return false, models.NewConflictError("cannot follow", fmt.Errorf("%w: %w", models.ErrSelfFollow, res.Error))
		}
		return false, writeErr(res.Error, "follow conflict")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": userID, "author_id": authorID})
	return true, nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	defer observability.TrackQuery("delete", "follows")()
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]any{"user_id": userID, "author_id": authorID})
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || authorID == 0 {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
