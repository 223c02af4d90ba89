// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// lookupErr maps a single-row lookup failure to an AppError.
func lookupErr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// writeErr maps constraint violations on insert or update to conflicts.
func writeErr(err error, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.NewConflictError(conflictMsg, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return models.NewConflictError(conflictMsg, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return models.NewValidationError("referenced record does not exist")
	default:
		return models.NewInternalError(err)
	}
}
