package sessiondb

import (
	"context"
	"fmt"
)

// These fallback rates are used when calculate_cost finds no matching
// model_pricing row at all (spec §4.I: "When no pricing row matches,
// use hard-coded fallback rates").
const (
	fallbackInputPerMTok      = 3.0
	fallbackOutputPerMTok     = 15.0
	fallbackCacheReadPerMTok  = 0.3
)

// CalculateCost looks up model_pricing by (a) exact pattern equality,
// then (b) `model LIKE pattern`, restricted to rows whose
// effective_until is null or in the future, ordered by exactness then
// effective_from DESC, and applies the per-MTok rates to usage (spec
// §4.I, §8 invariant 8). nowISO is the caller's current-time stamp
// (ISO-8601 UTC) used for the effective_until filter.
func (s *Store) CalculateCost(ctx context.Context, provider, model string, usage TokenUsage, nowISO string) (float64, error) {
	row, err := s.lookupPricing(ctx, provider, model, nowISO)
	if err != nil {
		return 0, err
	}

	in, out, read := fallbackInputPerMTok, fallbackOutputPerMTok, fallbackCacheReadPerMTok
	if row != nil {
		in, out, read = row.InputPerMTok, row.OutputPerMTok, row.CacheReadPerMTok
	}

	return computeCost(usage, in, out, read), nil
}

func computeCost(usage TokenUsage, inputRate, outputRate, cacheReadRate float64) float64 {
	return float64(usage.InputTokens)*inputRate/1e6 +
		float64(usage.OutputTokens)*outputRate/1e6 +
		float64(usage.CacheReadInputTokens)*cacheReadRate/1e6
}

func (s *Store) lookupPricing(ctx context.Context, provider, model, nowISO string) (*ModelPricing, error) {
	var exact ModelPricing
	err := s.db.GetContext(ctx, &exact, `
		SELECT * FROM model_pricing
		WHERE provider = ? AND pattern = ?
		  AND (effective_until IS NULL OR effective_until > ?)
		ORDER BY effective_from DESC
		LIMIT 1`, provider, model, nowISO)
	if err == nil {
		return &exact, nil
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM model_pricing
		WHERE provider = ? AND ? LIKE pattern
		  AND (effective_until IS NULL OR effective_until > ?)
		ORDER BY length(pattern) DESC, effective_from DESC`, provider, model, nowISO)
	if err != nil {
		return nil, fmt.Errorf("lookup model pricing: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var mp ModelPricing
		if err := rows.StructScan(&mp); err != nil {
			return nil, fmt.Errorf("scan model pricing: %w", err)
		}
		return &mp, nil
	}
	return nil, nil
}
