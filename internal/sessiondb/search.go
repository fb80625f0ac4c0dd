package sessiondb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prompt-stack/rudi/internal/logger"
)

// SearchHit is one ranked result from Search.
type SearchHit struct {
	Turn               Turn
	Session            Session
	UserHighlight      string
	AssistantHighlight string
}

var sanitizeRe = regexp.MustCompile(`["'()\-*]`)

// sanitizeQuery strips quoting, parens, dashes, and stars so raw user
// input can't break FTS5's query grammar (spec §4.I Search).
func sanitizeQuery(q string) string {
	return sanitizeRe.ReplaceAllString(q, " ")
}

// buildMatchQuery tokenises on whitespace and wraps each token as a
// prefix-matched FTS5 term ("tok"*), ANDed together implicitly by
// FTS5's default MATCH semantics (spec §4.I, §8 invariant 7: a result
// must contain every token).
func buildMatchQuery(q string) string {
	fields := strings.Fields(sanitizeQuery(q))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, fmt.Sprintf(`"%s"*`, f))
	}
	return strings.Join(terms, " ")
}

// Search runs the FTS5 full-text query over turns joined to sessions,
// wrapping matches in ">>>"/"<<<" via highlight() and ranking by
// bm25(). On any FTS error (e.g. an empty/degenerate match expression)
// it falls back to a LIKE '%q%' scan over the raw turn columns (spec
// §4.I).
func (s *Store) Search(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}

	matchQuery := buildMatchQuery(q)
	if matchQuery == "" {
		return nil, nil
	}

	hits, err := s.searchFTS(ctx, matchQuery, limit)
	if err != nil {
		logger.Warnf("sessiondb: fts5 search failed, falling back to LIKE: %v", err)
		return s.searchLike(ctx, q, limit)
	}
	return hits, nil
}

// ftsRow is the flat shape one ranked FTS5 search result scans into.
type ftsRow struct {
	Turn
	UserHL      string `db:"user_hl"`
	AssistantHL string `db:"assistant_hl"`
}

func (s *Store) searchFTS(ctx context.Context, matchQuery string, limit int) ([]SearchHit, error) {
	var rows []ftsRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT
			t.id, t.session_id, t.turn_number, t.user_message, t.assistant_response,
			t.model, t.input_tokens, t.output_tokens, t.cache_read_input_tokens,
			t.cache_creation_input_tokens, t.cost_usd, t.tools_used, t.created_at,
			highlight(turns_fts, 0, '>>>', '<<<') AS user_hl,
			highlight(turns_fts, 1, '>>>', '<<<') AS assistant_hl
		FROM turns_fts
		JOIN turns t ON t.id = turns_fts.rowid
		WHERE turns_fts MATCH ?
		ORDER BY bm25(turns_fts)
		LIMIT ?`, matchQuery, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(rows))
	for _, r := range rows {
		sess, err := s.GetSession(ctx, r.SessionID)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			continue
		}
		hits = append(hits, SearchHit{
			Turn:               r.Turn,
			Session:            *sess,
			UserHighlight:      r.UserHL,
			AssistantHighlight: r.AssistantHL,
		})
	}
	return hits, nil
}

// searchLike is the degraded-mode fallback: a plain substring scan with
// no ranking guarantee beyond most-recent-first.
func (s *Store) searchLike(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	pattern := "%" + q + "%"
	var turns []Turn
	err := s.db.SelectContext(ctx, &turns, `
		SELECT * FROM turns
		WHERE user_message LIKE ? OR assistant_response LIKE ?
		ORDER BY created_at DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("like fallback search: %w", err)
	}

	hits := make([]SearchHit, 0, len(turns))
	for _, t := range turns {
		sess, err := s.GetSession(ctx, t.SessionID)
		if err != nil || sess == nil {
			continue
		}
		hits = append(hits, SearchHit{Turn: t, Session: *sess})
	}
	return hits, nil
}

