package database

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/middleware"

	"gorm.io/gorm"
)

// TableStatus describes whether a model's table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus is the result of comparing PersistentModels against the live schema.
type SchemaStatus struct {
	Driver string
	Tables []TableStatus
}

// Pending returns the names of model tables that do not exist yet.
func (s *SchemaStatus) Pending() []string {
	var out []string
	for _, t := range s.Tables {
		if !t.Exists {
			out = append(out, t.Table)
		}
	}
	return out
}

// ApplySchema creates or updates every table, index, foreign key and check
// constraint declared on PersistentModels.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.String("driver", db.Dialector.Name()))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports which model tables exist.
func GetSchemaStatus(ctx context.Context, db *gorm.DB) (*SchemaStatus, error) {
	status := &SchemaStatus{Driver: db.Dialector.Name()}
	migrator := db.WithContext(ctx).Migrator()

	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		status.Tables = append(status.Tables, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: migrator.HasTable(model),
		})
	}
	return status, nil
}
