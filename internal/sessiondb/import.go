package sessiondb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prompt-stack/rudi/internal/logger"
)

// ImportOptions configures ImportAll (spec §4.I Import pipeline).
type ImportOptions struct {
	SkipExisting bool
	SkipDead     bool
	InferTitles  bool
}

// ImportStats summarises one ImportAll run.
type ImportStats struct {
	Imported int
	Skipped  int
	Dead     int
	Errors   int
}

// ImportAll walks all three provider roots under home and imports every
// transcript it finds into the store. A missing root is not an error:
// a machine with only Claude Code installed has no ~/.codex directory.
func ImportAll(ctx context.Context, store *Store, home string, opts ImportOptions) (ImportStats, error) {
	var stats ImportStats

	claudeRoot := filepath.Join(home, ".claude", "projects")
	if err := importClaude(ctx, store, claudeRoot, opts, &stats); err != nil {
		return stats, err
	}

	codexRoot := filepath.Join(home, ".codex", "sessions")
	if err := importCodex(ctx, store, codexRoot, opts, &stats); err != nil {
		return stats, err
	}

	geminiRoot := filepath.Join(home, ".gemini", "tmp")
	if err := importGemini(ctx, store, geminiRoot, opts, &stats); err != nil {
		return stats, err
	}

	return stats, nil
}

func importClaude(ctx context.Context, store *Store, root string, opts ImportOptions, stats *ImportStats) error {
	return walkIgnoringMissing(root, func() error {
		return WalkClaudeProjects(root, func(projectDir, sessionID, path string) error {
			title, turns, err := ParseClaudeTranscript(path, projectDir, opts.InferTitles)
			if err != nil {
				logger.Warnf("sessiondb: skipping unparsable claude transcript %s: %v", path, err)
				stats.Errors++
				return nil
			}
			return importSession(ctx, store, importedSession{
				provider:          "claude",
				providerSessionID: sessionID,
				projectName:       projectDir,
				projectPath:       filepath.Join(root, projectDir),
				cwd:               projectDir,
				title:             title,
			}, turns, opts, stats)
		})
	})
}

func importCodex(ctx context.Context, store *Store, root string, opts ImportOptions, stats *ImportStats) error {
	return walkIgnoringMissing(root, func() error {
		return WalkCodexSessions(root, func(sessionID, path string) error {
			title, cwd, model, turns, err := ParseCodexTranscript(path, opts.InferTitles)
			if err != nil {
				logger.Warnf("sessiondb: skipping unparsable codex transcript %s: %v", path, err)
				stats.Errors++
				return nil
			}
			return importSession(ctx, store, importedSession{
				provider:          "codex",
				providerSessionID: sessionID,
				projectName:       cwd,
				projectPath:       cwd,
				cwd:               cwd,
				model:             model,
				title:             title,
			}, turns, opts, stats)
		})
	})
}

func importGemini(ctx context.Context, store *Store, root string, opts ImportOptions, stats *ImportStats) error {
	return walkIgnoringMissing(root, func() error {
		return WalkGeminiSessions(root, func(sessionID, path string) error {
			title, turns, err := ParseGeminiTranscript(path, opts.InferTitles)
			if err != nil {
				logger.Warnf("sessiondb: skipping unparsable gemini transcript %s: %v", path, err)
				stats.Errors++
				return nil
			}
			return importSession(ctx, store, importedSession{
				provider:          "gemini",
				providerSessionID: sessionID,
				projectName:       sessionID,
				projectPath:       filepath.Dir(path),
				title:             title,
			}, turns, opts, stats)
		})
	})
}

// walkIgnoringMissing calls fn unless root's walk would fail purely
// because the provider's home directory doesn't exist on this machine.
func walkIgnoringMissing(root string, fn func() error) error {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	return fn()
}

type importedSession struct {
	provider          string
	providerSessionID string
	projectName       string
	projectPath       string
	cwd               string
	model             string
	title             string
}

// importSession applies dedup rules, then writes the project/session/
// turns as one logical unit. Turn costs are computed against the
// pricing table as they're inserted.
func importSession(ctx context.Context, store *Store, s importedSession, turns []Turn, opts ImportOptions, stats *ImportStats) error {
	if opts.SkipExisting {
		exists, err := store.SessionExists(ctx, s.provider, s.providerSessionID)
		if err != nil {
			return err
		}
		if exists {
			stats.Skipped++
			return nil
		}
	}
	if opts.SkipDead && len(turns) == 0 {
		stats.Dead++
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)

	projectID, err := store.UpsertProject(ctx, s.provider, s.projectName, s.projectPath, now)
	if err != nil {
		return fmt.Errorf("import session %s/%s: %w", s.provider, s.providerSessionID, err)
	}

	sessionID := fmt.Sprintf("%s:%s", s.provider, s.providerSessionID)
	sess := Session{
		ID:                sessionID,
		ProjectID:         &projectID,
		Provider:          s.provider,
		ProviderSessionID: s.providerSessionID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if s.title != "" {
		sess.Title = &s.title
	}
	if s.cwd != "" {
		sess.Cwd = &s.cwd
	}
	if s.model != "" {
		sess.Model = &s.model
	}

	var totalCost float64
	var totalIn, totalOut, totalCacheRead int64
	for i := range turns {
		turns[i].SessionID = sessionID
		if turns[i].CreatedAt == "" {
			turns[i].CreatedAt = now
		}
		model := s.model
		if turns[i].Model != nil {
			model = *turns[i].Model
		}
		cost, err := store.CalculateCost(ctx, s.provider, model, TokenUsage{
			InputTokens:          turns[i].InputTokens,
			OutputTokens:         turns[i].OutputTokens,
			CacheReadInputTokens: turns[i].CacheReadInputTokens,
		}, now)
		if err != nil {
			return fmt.Errorf("calculate cost for turn %d of %s: %w", turns[i].TurnNumber, sessionID, err)
		}
		turns[i].CostUSD = cost
		totalCost += cost
		totalIn += turns[i].InputTokens
		totalOut += turns[i].OutputTokens
		totalCacheRead += turns[i].CacheReadInputTokens
	}

	sess.TurnCount = len(turns)
	sess.TotalCostUSD = totalCost
	sess.TotalInputTokens = totalIn
	sess.TotalOutputTokens = totalOut
	sess.TotalCacheReadTokens = totalCacheRead

	if err := store.InsertSession(ctx, sess); err != nil {
		return fmt.Errorf("import session %s: %w", sessionID, err)
	}
	for _, t := range turns {
		if err := store.InsertTurn(ctx, t); err != nil {
			return fmt.Errorf("import turn %d of %s: %w", t.TurnNumber, sessionID, err)
		}
	}
	stats.Imported++
	return nil
}
