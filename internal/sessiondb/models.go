package sessiondb

// Project is a provider-scoped group of sessions (spec §3), e.g. one
// row per distinct working directory Claude Code has a project folder
// for, or one per codex/gemini workspace.
type Project struct {
	ID        string `db:"id"`
	Provider  string `db:"provider"`
	Name      string `db:"name"`
	Path      string `db:"path"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Session is a conversation container owning Turns by turn_number.
type Session struct {
	ID                   string  `db:"id"`
	ProjectID            *string `db:"project_id"`
	Provider             string  `db:"provider"`
	ProviderSessionID    string  `db:"provider_session_id"`
	Title                *string `db:"title"`
	Cwd                  *string `db:"cwd"`
	Model                *string `db:"model"`
	CreatedAt            string  `db:"created_at"`
	UpdatedAt            string  `db:"updated_at"`
	TurnCount            int     `db:"turn_count"`
	TotalCostUSD         float64 `db:"total_cost_usd"`
	TotalInputTokens     int64   `db:"total_input_tokens"`
	TotalOutputTokens    int64   `db:"total_output_tokens"`
	TotalCacheReadTokens int64   `db:"total_cache_read_tokens"`
}

// Turn is one user+assistant message pair with token/cost metrics.
type Turn struct {
	ID                       int64   `db:"id"`
	SessionID                string  `db:"session_id"`
	TurnNumber               int     `db:"turn_number"`
	UserMessage              *string `db:"user_message"`
	AssistantResponse        *string `db:"assistant_response"`
	Model                    *string `db:"model"`
	InputTokens              int64   `db:"input_tokens"`
	OutputTokens             int64   `db:"output_tokens"`
	CacheReadInputTokens     int64   `db:"cache_read_input_tokens"`
	CacheCreationInputTokens int64   `db:"cache_creation_input_tokens"`
	CostUSD                  float64 `db:"cost_usd"`
	ToolsUsed                string  `db:"tools_used"` // JSON array
	CreatedAt                string  `db:"created_at"`
}

// TokenUsage is the subset of Turn fields calculate_cost needs.
type TokenUsage struct {
	InputTokens          int64
	OutputTokens         int64
	CacheReadInputTokens int64
}

// ModelPricing is one pattern-matched per-MTok rate row with time
// validity (spec §3).
type ModelPricing struct {
	ID               int64   `db:"id"`
	Provider         string  `db:"provider"`
	Pattern          string  `db:"pattern"`
	InputPerMTok     float64 `db:"input_per_mtok"`
	OutputPerMTok    float64 `db:"output_per_mtok"`
	CacheReadPerMTok float64 `db:"cache_read_per_mtok"`
	EffectiveFrom    string  `db:"effective_from"`
	EffectiveUntil   *string `db:"effective_until"`
}

// Package mirrors the file-system install state for historical
// reporting (spec §3); configstore.Document remains the live source of
// truth.
type Package struct {
	ID          string `db:"id"`
	Kind        string `db:"kind"`
	Name        string `db:"name"`
	Version     string `db:"version"`
	Source      string `db:"source"`
	InstalledAt string `db:"installed_at"`
}

// Run is one recorded invocation of a package (e.g. a stack spawn for
// tool indexing, or an installer run), kept for historical reporting.
type Run struct {
	ID         string  `db:"id"`
	PackageID  string  `db:"package_id"`
	StartedAt  string  `db:"started_at"`
	FinishedAt *string `db:"finished_at"`
	Status     string  `db:"status"`
	Error      *string `db:"error"`
}

// Artifact is a file produced by a Run.
type Artifact struct {
	ID        string `db:"id"`
	RunID     string `db:"run_id"`
	Path      string `db:"path"`
	Checksum  string `db:"checksum"`
	CreatedAt string `db:"created_at"`
}

// Lockfile mirrors the per-package YAML lockfile component E writes
// (spec §3), for historical reporting/audit across installs.
type Lockfile struct {
	ID        string `db:"id"`
	PackageID string `db:"package_id"`
	Version   string `db:"version"`
	Checksum  string `db:"checksum"`
	CreatedAt string `db:"created_at"`
}

// Log is one observability event (spec §4.I).
type Log struct {
	ID         int64   `db:"id"`
	Timestamp  string  `db:"timestamp"`
	Source     string  `db:"source"`
	Level      string  `db:"level"`
	Type       string  `db:"type"`
	Provider   *string `db:"provider"`
	SessionID  *string `db:"session_id"`
	Terminal   *string `db:"terminal"`
	Message    string  `db:"message"`
	PayloadJSON *string `db:"payload_json"`
	DurationMs *int64  `db:"duration_ms"`
}
