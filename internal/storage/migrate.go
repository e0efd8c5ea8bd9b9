package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Migrate applies every pending schema migration for the dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := "migrations/sqlite"
	if dialect == goose.DialectPostgres {
		dir = "migrations/postgres"
	}
	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, result := range results {
		logger.Info("applied migration",
			zap.String("op", "storage.Migrate"),
			zap.String("dialect", string(dialect)),
			zap.String("source", result.Source.Path),
			zap.Duration("duration", result.Duration),
		)
	}
	return nil
}
