package repository

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users", middleware.Logger)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return writeErr(err, "a user with that username already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID, "username": user.Username})
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupErr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, lookupErr(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("username").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Delete removes the user with their posts, comments and follows. The rows
// are removed explicitly so the cascade holds without FK enforcement.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "users")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("post_id IN (?) OR author_id = ?", postIDs, id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
	if err != nil {
		if models.IsNotFound(err) {
			return err
		}
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"user_id": id})
	return nil
}
