package db

import (
	"database/sql"
	"fmt"

	"shopapp/internal/config"
	"shopapp/internal/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// NewDatabase opens the database selected by cfg.StoreDriver and checks that
// it answers. The memory driver has no database.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		return openSQLite(cfg.StorePath)
	case config.DriverPostgres:
		return newDatabaseWithDriver(cfg, "postgres")
	default:
		return nil, fmt.Errorf("store driver %q has no database", cfg.StoreDriver)
	}
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

func newDatabaseWithDriver(cfg *config.Config, driverName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L().Info("database connection established",
		zap.String("driver", driverName),
		zap.String("host", cfg.DBHost),
	)
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	logger.L().Info("database connection established",
		zap.String("driver", "sqlite3"),
		zap.String("path", path),
	)
	return db, nil
}

// InitDB is NewDatabase for entrypoints that cannot continue without storage.
func InitDB(cfg *config.Config) *sql.DB {
	db, err := NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}
	return db
}
