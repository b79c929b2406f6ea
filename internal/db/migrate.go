package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"shopapp/internal/logger"

	"go.uber.org/zap"
)

const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrate applies every pending migration ("up") or rolls back the latest
// applied one ("down").
func Migrate(ctx context.Context, db *sql.DB, mode string) error {
	return migrateFS(ctx, db, mode, embeddedMigrations, "migrations")
}

func migrateFS(ctx context.Context, db *sql.DB, mode string, fsys fs.FS, dir string) error {
	if mode != MigrateUp && mode != MigrateDown {
		return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	if mode == MigrateUp {
		return runMigrationsUp(ctx, db, fsys, files)
	}
	return runMigrationsDown(ctx, db, fsys, files)
}

func runMigrationsUp(ctx context.Context, db *sql.DB, fsys fs.FS, files []string) error {
	log := logger.FromCtx(ctx)
	applied := 0

	for _, file := range files {
		version := path.Base(file)

		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		log.Info("applying migration", zap.String("version", version))
		if _, err := db.ExecContext(ctx, extractMigrationPart(string(content), "Up")); err != nil {
			return fmt.Errorf("migration failed (%s): %w", version, err)
		}

		_, err = db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
		if err != nil {
			return fmt.Errorf("failed to record migration version: %w", err)
		}
		applied++
	}

	log.Info("migrations up to date", zap.Int("applied", applied))
	return nil
}

func runMigrationsDown(ctx context.Context, db *sql.DB, fsys fs.FS, files []string) error {
	log := logger.FromCtx(ctx)

	// Versions are timestamp-prefixed file names, so the greatest one is the latest.
	var lastVersion string
	err := db.QueryRowContext(ctx,
		`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`,
	).Scan(&lastVersion)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	file := ""
	for _, f := range files {
		if path.Base(f) == lastVersion {
			file = f
			break
		}
	}
	if file == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	log.Info("rolling back migration", zap.String("version", lastVersion))
	if _, err := db.ExecContext(ctx, extractMigrationPart(string(content), "Down")); err != nil {
		return fmt.Errorf("rollback failed (%s): %w", lastVersion, err)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, lastVersion)
	if err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return nil
}

func extractMigrationPart(content string, section string) string {
	var part strings.Builder
	inPart := false

	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
