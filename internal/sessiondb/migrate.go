package sessiondb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/prompt-stack/rudi/internal/errorkinds"
	"github.com/prompt-stack/rudi/internal/logger"
)

// SchemaVersion is the highest migration version this build knows how
// to apply.
const SchemaVersion = 2

// executor is the subset of *sql.Tx / *sql.DB a migration step needs;
// it lets a migration run either inside a transaction or, for txUnsafe
// steps, directly against the connection.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// migrationFunc transforms the schema from one version to the next,
// inside a transaction unless txUnsafe is set (spec §4.I: "migrations
// that manipulate DDL incompatible with transactions run unwrapped" —
// SQLite's own DDL is transactional, so none of ours need that escape
// hatch, but the seam exists for a future one that does).
type migrationFunc struct {
	version  int
	describe string
	apply    func(ctx context.Context, ex executor) error
	txUnsafe bool
}

var migrations = []migrationFunc{
	{version: 1, describe: "initial_schema", apply: applyInitialSchema},
	{version: 2, describe: "seed_pricing", apply: applySeedPricing},
}

// Migrator tracks the schema_version table and applies pending
// migrations in order, one at a time, guarded by a mutex so a single
// process never runs two migration passes concurrently (spec §4.I).
type Migrator struct {
	db *DB
	mu sync.Mutex
}

// NewMigrator binds a Migrator to an open DB.
func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db}
}

// MigrateUp applies every migration whose version exceeds the current
// one, in ascending order. If no schema_version table exists yet, it is
// created and the full set runs from version 0.
func (m *Migrator) MigrateUp(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	sorted := append([]migrationFunc(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].version < sorted[j].version })

	for _, mig := range sorted {
		if mig.version <= current {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return &errorkinds.DBMigrationFailedError{From: current, To: mig.version, Cause: err}
		}
		logger.Debugf("sessiondb: applied migration %d (%s)", mig.version, mig.describe)
		current = mig.version
	}
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)
	`)
	return err
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := m.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(version.Int64), nil
}

func (m *Migrator) apply(ctx context.Context, mig migrationFunc) error {
	if mig.txUnsafe {
		if err := mig.apply(ctx, m.db); err != nil {
			return err
		}
		_, err := m.db.ExecContext(ctx,
			`INSERT INTO schema_version (version, description) VALUES (?, ?)`,
			mig.version, mig.describe)
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := mig.apply(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, description) VALUES (?, ?)`,
		mig.version, mig.describe); err != nil {
		return err
	}
	return tx.Commit()
}
