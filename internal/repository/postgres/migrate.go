package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"rentdesk-backend/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates any missing tables and indexes. Every statement is
// idempotent so it is safe to run on each deploy.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying schema")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("Schema up to date")
	return nil
}
