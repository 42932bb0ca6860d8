// Package db opens the catalog database and keeps its schema migrated.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ncruces/go-sqlite3"
	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"
)

// FileName is the database file inside the data directory.
const FileName = "vlist.db"

var pragmas = []string{
	"PRAGMA foreign_keys = ON;",
	"PRAGMA journal_mode = WAL;",
	"PRAGMA page_size = 4096;",
	"PRAGMA cache_size = -8000;",
	"PRAGMA synchronous = NORMAL;",
}

var setupGoose = sync.OnceValue(func() error {
	goose.SetBaseFS(FS)
	goose.SetLogger(goose.NopLogger())
	return goose.SetDialect("sqlite3")
})

// Connect opens the database in dataDir, creating it if needed, and applies
// pending migrations.
func Connect(ctx context.Context, dataDir string) (*sql.DB, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data.directory is not set")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return Open(ctx, filepath.Join(dataDir, FileName))
}

// Open opens the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := driver.Open(path, func(c *sqlite3.Conn) error {
		for _, pragma := range pragmas {
			if err := c.Exec(pragma); err != nil {
				return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := setupGoose(); err != nil {
		slog.Error("Failed to set dialect", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		slog.Error("Failed to apply migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return db, nil
}
