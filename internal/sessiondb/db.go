// Package sessiondb owns the embedded SQL engine that stores imported
// agent conversation transcripts, the installer's historical reporting
// mirror, model pricing, and observability log events, with a
// full-text-search index over turns (spec §4.I, component I).
//
// The process holds a single *DB at a time, lazily opened; callers pass
// it explicitly rather than reaching for a package-level global (spec §9
// design note: no hidden globals).
package sessiondb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver

	"github.com/prompt-stack/rudi/internal/logger"
)

// DB wraps the SQL connection pool plus the migration state.
type DB struct {
	*sqlx.DB
}

// Open creates the db directory if needed, opens the single-file
// database, applies pragmas (WAL journal, synchronous=NORMAL,
// foreign_keys=ON, ~64MiB page cache), and runs pending migrations.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc's driver serialises writers internally; a single
	// connection avoids SQLITE_BUSY races during WAL checkpoints.
	conn.SetMaxOpenConns(1)

	db := &DB{DB: conn}
	if err := db.applyPragmas(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := NewMigrator(db).MigrateUp(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		// ~64MiB: negative value is KiB of page cache per SQLite docs.
		"PRAGMA cache_size = -65536",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool, logging (not
// propagating) close errors since callers are typically in a defer.
func (db *DB) Close() {
	if db == nil || db.DB == nil {
		return
	}
	if err := db.DB.Close(); err != nil {
		logger.Warnf("sessiondb: close: %v", err)
	}
}
