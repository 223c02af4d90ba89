package repository

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero fields do not filter.
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint // posts by authors this user follows
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts", middleware.Logger)}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return writeErr(err, "post already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, lookupErr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) scoped(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.GroupID != 0 {
		q = q.Where("posts.group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.FollowerID != 0 {
		q = q.Joins("JOIN follows ON follows.author_id = posts.author_id AND follows.user_id = ?", filter.FollowerID)
	}
	return q
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	var posts []*models.Post
	err := r.scoped(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order(models.PostOrder).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	defer observability.TrackQuery("count", "posts")()
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

// Update saves the editable fields. A nil GroupID clears the group.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]any{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return writeErr(res.Error, "post conflict")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_id": post.ID})
	return nil
}

// Delete removes the post and its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		if !models.IsNotFound(err) {
			r.log.LogError(ctx, err, "delete")
		}
		return err
	}
	r.log.LogDelete(ctx, map[string]any{"post_id": id})
	return nil
}
