package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/planhub/planhub-api/migrations"
	"github.com/pressly/goose/v3"
)

// runMigrations applies any pending embedded migrations to the database.
// Goose keeps its own version table, so this is a no-op on an up-to-date
// schema.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("Database migrations applied", "version", version)
	return nil
}
