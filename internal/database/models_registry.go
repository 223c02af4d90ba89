package database

import "yatube/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	}
}
