// Package storage owns the versioned sqlite database: schema migrations,
// cost record CRUD and the small settings table.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"costwatch/internal/core"

	_ "modernc.org/sqlite"
)

// Store is the process-wide handle to the local database. All access goes
// through its methods; the underlying *sql.DB is safe for concurrent callers
// and sqlite serializes conflicting writes.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and runs any pending schema
// migrations. A migration failure is fatal for the session and is reported
// wrapping core.ErrSchema; the caller must not retry automatically.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %v", core.ErrSchema, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", core.ErrSchema, translateErr(err))
	}

	if err := RunMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrSchema, err)
	}

	slog.InfoContext(ctx, "Store opened", "path", path)

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database. Idempotent.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

// translateErr maps context deadline and cancellation errors onto the
// application taxonomy so callers never branch on driver internals.
func translateErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	return err
}
