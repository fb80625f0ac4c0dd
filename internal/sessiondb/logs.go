package sessiondb

import (
	"context"
	"fmt"
	"strings"
)

// LogFilter configures QueryLogs (spec §4.I Observability store).
type LogFilter struct {
	Since       string // ISO-8601, inclusive; "" disables
	Until       string // ISO-8601, exclusive; "" disables
	Source      string
	Level       string
	Type        string
	Provider    string
	SessionID   string
	Terminal    string
	Contains    string // free-text substring over the JSON payload or message
	SlowOnlyMs  int64  // when > 0, restricts to duration_ms >= this
	Limit       int
	Offset      int
}

// StoreLogEvent inserts one observability event.
func (s *Store) StoreLogEvent(ctx context.Context, l Log) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (timestamp, source, level, type, provider, session_id, terminal, message, payload_json, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Timestamp, l.Source, l.Level, l.Type, l.Provider, l.SessionID, l.Terminal, l.Message, l.PayloadJSON, l.DurationMs)
	if err != nil {
		return fmt.Errorf("store log event: %w", err)
	}
	return nil
}

// QueryLogs applies every set filter, paginates by limit/offset, and
// orders by timestamp DESC (spec §4.I).
func (s *Store) QueryLogs(ctx context.Context, f LogFilter) ([]Log, error) {
	var clauses []string
	var args []interface{}

	add := func(clause string, arg interface{}) {
		clauses = append(clauses, clause)
		args = append(args, arg)
	}

	if f.Since != "" {
		add("timestamp >= ?", f.Since)
	}
	if f.Until != "" {
		add("timestamp < ?", f.Until)
	}
	if f.Source != "" {
		add("source = ?", f.Source)
	}
	if f.Level != "" {
		add("level = ?", f.Level)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.Provider != "" {
		add("provider = ?", f.Provider)
	}
	if f.SessionID != "" {
		add("session_id = ?", f.SessionID)
	}
	if f.Terminal != "" {
		add("terminal = ?", f.Terminal)
	}
	if f.Contains != "" {
		add("(payload_json LIKE ? OR message LIKE ?)", "%"+f.Contains+"%")
		args = append(args, "%"+f.Contains+"%")
	}
	if f.SlowOnlyMs > 0 {
		add("duration_ms >= ?", f.SlowOnlyMs)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT * FROM logs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	var logs []Log
	if err := s.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	return logs, nil
}

// CleanupOldLogs deletes every log event timestamped before cutoffISO,
// an ISO-8601 cutoff timestamp the caller computes (no
// time.Now() call here, to keep this package's time source explicit and
// testable).
func (s *Store) CleanupOldLogs(ctx context.Context, cutoffISO string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE timestamp < ?`, cutoffISO)
	if err != nil {
		return 0, fmt.Errorf("cleanup old logs: %w", err)
	}
	return res.RowsAffected()
}
