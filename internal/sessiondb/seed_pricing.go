package sessiondb

import "context"

// seedPricingRow is one starter model_pricing row, embedded at build
// time and loaded on first migration (spec §4.I: "When no pricing row
// matches, use hard-coded fallback rates" — these rows give the
// longest-pattern-wins lookup something to match before a caller ever
// configures their own).
type seedPricingRow struct {
	provider      string
	pattern       string
	inputPerMTok  float64
	outputPerMTok float64
	cacheReadPerMTok float64
	effectiveFrom string
}

// seedPricing is grounded on the rates documented in spec §8 S3
// (claude-sonnet-4-5 / claude-haiku-4-5) plus sibling rows for the
// other providers component I's importers (spec §4.I) recognise.
var seedPricing = []seedPricingRow{
	{provider: "claude", pattern: "claude-sonnet-4-5-%", inputPerMTok: 3.0, outputPerMTok: 15.0, cacheReadPerMTok: 0.30, effectiveFrom: "2025-01-01T00:00:00Z"},
	{provider: "claude", pattern: "claude-haiku-4-5-%", inputPerMTok: 0.8, outputPerMTok: 4.0, cacheReadPerMTok: 0.08, effectiveFrom: "2025-01-01T00:00:00Z"},
	{provider: "claude", pattern: "claude-opus-%", inputPerMTok: 15.0, outputPerMTok: 75.0, cacheReadPerMTok: 1.50, effectiveFrom: "2025-01-01T00:00:00Z"},
	{provider: "codex", pattern: "gpt-5%", inputPerMTok: 1.25, outputPerMTok: 10.0, cacheReadPerMTok: 0.125, effectiveFrom: "2025-01-01T00:00:00Z"},
	{provider: "codex", pattern: "o4-mini%", inputPerMTok: 1.1, outputPerMTok: 4.4, cacheReadPerMTok: 0.275, effectiveFrom: "2025-01-01T00:00:00Z"},
	{provider: "gemini", pattern: "gemini-2.5-pro%", inputPerMTok: 1.25, outputPerMTok: 10.0, cacheReadPerMTok: 0.31, effectiveFrom: "2025-01-01T00:00:00Z"},
	{provider: "gemini", pattern: "gemini-2.5-flash%", inputPerMTok: 0.3, outputPerMTok: 2.5, cacheReadPerMTok: 0.075, effectiveFrom: "2025-01-01T00:00:00Z"},
}

func applySeedPricing(ctx context.Context, ex executor) error {
	for _, row := range seedPricing {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO model_pricing
				(provider, pattern, input_per_mtok, output_per_mtok, cache_read_per_mtok, effective_from)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row.provider, row.pattern, row.inputPerMTok, row.outputPerMTok, row.cacheReadPerMTok, row.effectiveFrom)
		if err != nil {
			return err
		}
	}
	return nil
}
