package sessiondb

import "context"

// applyInitialSchema creates every table and FTS5 shadow table spec §4.I
// names: projects, sessions, turns (+ its FTS5 shadow and sync
// triggers), tags, session_tags, model_pricing, packages, package_deps,
// runs, artifacts, lockfiles, secrets_meta, logs. Foreign keys cascade
// where ownership exists (turn -> session) and SET NULL where the
// reference is merely informational (session -> project), matching the
// invariants in spec §3.
func applyInitialSchema(ctx context.Context, ex executor) error {
	const ddl = `
	CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (provider, path)
	);

	CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
		provider TEXT NOT NULL,
		provider_session_id TEXT NOT NULL,
		title TEXT,
		cwd TEXT,
		model TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		turn_count INTEGER NOT NULL DEFAULT 0,
		total_cost_usd REAL NOT NULL DEFAULT 0,
		total_input_tokens INTEGER NOT NULL DEFAULT 0,
		total_output_tokens INTEGER NOT NULL DEFAULT 0,
		total_cache_read_tokens INTEGER NOT NULL DEFAULT 0,
		UNIQUE (provider, provider_session_id)
	);
	CREATE INDEX idx_sessions_project ON sessions(project_id);
	CREATE INDEX idx_sessions_updated ON sessions(updated_at DESC);

	CREATE TABLE turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_number INTEGER NOT NULL,
		user_message TEXT,
		assistant_response TEXT,
		model TEXT,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cache_read_input_tokens INTEGER NOT NULL DEFAULT 0,
		cache_creation_input_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		tools_used TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		UNIQUE (session_id, turn_number)
	);
	CREATE INDEX idx_turns_session ON turns(session_id, turn_number);

	-- FTS5 shadow table kept in sync with turns via triggers (spec §3,
	-- §4.I, §8 invariant 7). tokenize=porter unicode61 matches the
	-- teacher's stemmed-token search convention.
	CREATE VIRTUAL TABLE turns_fts USING fts5(
		user_message,
		assistant_response,
		content='turns',
		content_rowid='id',
		tokenize='porter unicode61'
	);

	CREATE TRIGGER turns_fts_insert AFTER INSERT ON turns BEGIN
		INSERT INTO turns_fts(rowid, user_message, assistant_response)
		VALUES (new.id, new.user_message, new.assistant_response);
	END;

	CREATE TRIGGER turns_fts_update AFTER UPDATE ON turns BEGIN
		INSERT INTO turns_fts(turns_fts, rowid, user_message, assistant_response)
		VALUES ('delete', old.id, old.user_message, old.assistant_response);
		INSERT INTO turns_fts(rowid, user_message, assistant_response)
		VALUES (new.id, new.user_message, new.assistant_response);
	END;

	CREATE TRIGGER turns_fts_delete AFTER DELETE ON turns BEGIN
		INSERT INTO turns_fts(turns_fts, rowid, user_message, assistant_response)
		VALUES ('delete', old.id, old.user_message, old.assistant_response);
	END;

	CREATE TABLE tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE session_tags (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (session_id, tag_id)
	);

	CREATE TABLE model_pricing (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		pattern TEXT NOT NULL,
		input_per_mtok REAL NOT NULL,
		output_per_mtok REAL NOT NULL,
		cache_read_per_mtok REAL NOT NULL DEFAULT 0,
		effective_from TEXT NOT NULL,
		effective_until TEXT
	);
	CREATE INDEX idx_model_pricing_provider ON model_pricing(provider);

	-- Mirrors the file-system install state for historical reporting
	-- (spec §3); the live source of truth remains the central config
	-- document (internal/configstore) and each install's manifest.json.
	CREATE TABLE packages (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		source TEXT NOT NULL,
		installed_at TEXT NOT NULL
	);

	CREATE TABLE package_deps (
		package_id TEXT NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		depends_on_id TEXT NOT NULL,
		PRIMARY KEY (package_id, depends_on_id)
	);

	CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		package_id TEXT NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX idx_runs_package ON runs(package_id);

	CREATE TABLE artifacts (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		checksum TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX idx_artifacts_run ON artifacts(run_id);

	CREATE TABLE lockfiles (
		id TEXT PRIMARY KEY,
		package_id TEXT NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		version TEXT NOT NULL,
		checksum TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE secrets_meta (
		name TEXT PRIMARY KEY,
		configured INTEGER NOT NULL DEFAULT 0,
		provider TEXT NOT NULL,
		stack TEXT,
		required INTEGER NOT NULL DEFAULT 0,
		last_updated TEXT
	);

	CREATE TABLE logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		source TEXT NOT NULL,
		level TEXT NOT NULL,
		type TEXT NOT NULL,
		provider TEXT,
		session_id TEXT,
		terminal TEXT,
		message TEXT NOT NULL,
		payload_json TEXT,
		duration_ms INTEGER
	);
	CREATE INDEX idx_logs_timestamp ON logs(timestamp DESC);
	CREATE INDEX idx_logs_source_level ON logs(source, level);
	CREATE INDEX idx_logs_session ON logs(session_id);
	`

	_, err := ex.ExecContext(ctx, ddl)
	return err
}
