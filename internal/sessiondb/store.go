package sessiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store is the query layer over an open DB, grounded on the teacher's
// SessionStore shape (internal/storage's sqlx-backed repositories):
// small, focused methods rather than a generic query builder.
type Store struct {
	db *DB
}

// NewStore binds a Store to an open DB.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// UpsertProject finds an existing (provider, path) project or creates
// one, returning its id.
func (s *Store) UpsertProject(ctx context.Context, provider, name, path, now string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM projects WHERE provider = ? AND path = ?`, provider, path,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup project: %w", err)
	}

	id = fmt.Sprintf("%s:%s", provider, path)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, provider, name, path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, provider, name, path, now, now)
	if err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

// SessionExists reports whether a session with this (provider,
// providerSessionID) pair has already been imported (spec §4.I
// deduplication).
func (s *Store) SessionExists(ctx context.Context, provider, providerSessionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE provider = ? AND provider_session_id = ?`,
		provider, providerSessionID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check session exists: %w", err)
	}
	return count > 0, nil
}

// InsertSession inserts a fully-formed session row (one import = one
// insert; re-imports are gated upstream by SessionExists).
func (s *Store) InsertSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, project_id, provider, provider_session_id, title, cwd, model,
			created_at, updated_at, turn_count, total_cost_usd,
			total_input_tokens, total_output_tokens, total_cache_read_tokens
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ProjectID, sess.Provider, sess.ProviderSessionID, sess.Title, sess.Cwd, sess.Model,
		sess.CreatedAt, sess.UpdatedAt, sess.TurnCount, sess.TotalCostUSD,
		sess.TotalInputTokens, sess.TotalOutputTokens, sess.TotalCacheReadTokens)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

// InsertTurn inserts one turn. Callers are responsible for assigning
// strictly increasing turn_number starting at 1 per session (spec §3
// invariant); the UNIQUE(session_id, turn_number) constraint is the
// database-level backstop.
func (s *Store) InsertTurn(ctx context.Context, t Turn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (
			session_id, turn_number, user_message, assistant_response, model,
			input_tokens, output_tokens, cache_read_input_tokens, cache_creation_input_tokens,
			cost_usd, tools_used, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.TurnNumber, t.UserMessage, t.AssistantResponse, t.Model,
		t.InputTokens, t.OutputTokens, t.CacheReadInputTokens, t.CacheCreationInputTokens,
		t.CostUSD, t.ToolsUsed, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert turn %d of session %s: %w", t.TurnNumber, t.SessionID, err)
	}
	return nil
}

// DeleteDeadSession removes the session with this id; its turns go with
// it by cascade. ImportAll does not call it: with SkipDead it skips an
// empty transcript before any row is written.
func (s *Store) DeleteDeadSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.GetContext(ctx, &sess, `SELECT * FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &sess, nil
}

// ListSessions returns sessions ordered by most-recently-updated,
// optionally filtered to one provider.
func (s *Store) ListSessions(ctx context.Context, provider string, limit int) ([]Session, error) {
	var sessions []Session
	var err error
	if provider == "" {
		err = s.db.SelectContext(ctx, &sessions,
			`SELECT * FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	} else {
		err = s.db.SelectContext(ctx, &sessions,
			`SELECT * FROM sessions WHERE provider = ? ORDER BY updated_at DESC LIMIT ?`, provider, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListTurns returns every turn of a session in turn_number order.
func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	var turns []Turn
	err := s.db.SelectContext(ctx, &turns,
		`SELECT * FROM turns WHERE session_id = ? ORDER BY turn_number ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns of %s: %w", sessionID, err)
	}
	return turns, nil
}

// RecordPackage upserts one row into the installer-state mirror (spec
// §3's Package/Run/Artifact/Lockfile reporting tables).
func (s *Store) RecordPackage(ctx context.Context, pkg Package) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO packages (id, kind, name, version, source, installed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			version = excluded.version, source = excluded.source, installed_at = excluded.installed_at`,
		pkg.ID, pkg.Kind, pkg.Name, pkg.Version, pkg.Source, pkg.InstalledAt)
	if err != nil {
		return fmt.Errorf("record package %s: %w", pkg.ID, err)
	}
	return nil
}

// RecordPackageDep records one edge of the installed dependency graph.
func (s *Store) RecordPackageDep(ctx context.Context, packageID, dependsOnID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO package_deps (package_id, depends_on_id) VALUES (?, ?)`,
		packageID, dependsOnID)
	return err
}

// RecordRun inserts one run record.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, package_id, started_at, finished_at, status, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.PackageID, run.StartedAt, run.FinishedAt, run.Status, run.Error)
	return err
}

// RecordArtifact inserts one artifact produced by a run.
func (s *Store) RecordArtifact(ctx context.Context, a Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, run_id, path, checksum, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.RunID, a.Path, a.Checksum, a.CreatedAt)
	return err
}

// RecordLockfile inserts one lockfile mirror row.
func (s *Store) RecordLockfile(ctx context.Context, l Lockfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lockfiles (id, package_id, version, checksum, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.PackageID, l.Version, l.Checksum, l.CreatedAt)
	return err
}

// UpsertSecretMeta mirrors configstore's secrets map into the DB for
// reporting queries that join against sessions/packages.
func (s *Store) UpsertSecretMeta(ctx context.Context, name string, configured, required bool, provider, stack string, lastUpdated *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO secrets_meta (name, configured, provider, stack, required, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			configured = excluded.configured, provider = excluded.provider,
			stack = excluded.stack, required = excluded.required,
			last_updated = excluded.last_updated`,
		name, configured, provider, stack, required, lastUpdated)
	return err
}
