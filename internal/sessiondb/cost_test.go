package sessiondb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCalculateCostSelectsExactPricingRow mirrors spec scenario S3: two
// seeded claude pricing rows, sonnet and haiku, and a sonnet model id
// must select the sonnet rate rather than haiku or the fallback.
func TestCalculateCostSelectsExactPricingRow(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	cost, err := s.CalculateCost(ctx, "claude", "claude-sonnet-4-5-20250101", TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 500_000,
	}, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.InDelta(t, 10.5, cost, 1e-9)
}

func TestCalculateCostFallsBackWhenNoPricingRowMatches(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	cost, err := s.CalculateCost(ctx, "unknown-provider", "some-model", TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.InDelta(t, fallbackInputPerMTok+fallbackOutputPerMTok, cost, 1e-9)
}

func TestCalculateCostHonoursEffectiveUntil(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_pricing (provider, pattern, input_per_mtok, output_per_mtok, cache_read_per_mtok, effective_from, effective_until)
		VALUES ('claude', 'claude-sonnet-4-5-%', 1, 1, 0, '2020-01-01T00:00:00Z', '2021-01-01T00:00:00Z')`)
	require.NoError(t, err)

	cost, err := s.CalculateCost(ctx, "claude", "claude-sonnet-4-5-20250101", TokenUsage{
		InputTokens: 1_000_000,
	}, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.InDelta(t, 3.0, cost, 1e-9)
}
