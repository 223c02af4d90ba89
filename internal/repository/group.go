package repository

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	Delete(ctx context.Context, slug string) error
}

type groupRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db, log: observability.NewRepoLogger("groups", middleware.Logger)}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return writeErr(err, "a group with that slug already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"group_id": group.ID, "slug": group.Slug})
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, lookupErr(err, "Group", id)
	}
	return &group, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, lookupErr(err, "Group", slug)
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	if err := r.db.WithContext(ctx).Order("title, id").Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// Delete removes the group. Its posts stay and lose their group.
func (r *groupRepository) Delete(ctx context.Context, slug string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Where("slug = ?", slug).First(&group).Error; err != nil {
			return lookupErr(err, "Group", slug)
		}
		if err := tx.Model(&models.Post{}).Where("group_id = ?", group.ID).Update("group_id", nil).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&group).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		if !models.IsNotFound(err) {
			r.log.LogError(ctx, err, "delete")
		}
		return err
	}
	r.log.LogDelete(ctx, map[string]any{"slug": slug})
	return nil
}
