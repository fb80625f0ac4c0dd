package sessiondb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseClaudeTranscript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess-1.jsonl")
	writeFile(t, path, `
{"type":"message","timestamp":"2026-01-01T00:00:00Z","message":{"role":"user","content":"fix the login bug"}}
{"type":"message","timestamp":"2026-01-01T00:00:01Z","message":{"role":"assistant","model":"claude-sonnet-4-5-20250101","content":[{"type":"tool_use","name":"grep"},{"type":"text","text":"patched it"}],"usage":{"input_tokens":100,"output_tokens":50,"cache_read_input_tokens":10}}}
`)

	title, turns, err := ParseClaudeTranscript(path, "my-project", true)
	require.NoError(t, err)
	require.Equal(t, "fix the login bug", title)
	require.Len(t, turns, 1)
	require.Equal(t, "fix the login bug", *turns[0].UserMessage)
	require.Equal(t, "patched it", *turns[0].AssistantResponse)
	require.Equal(t, "claude-sonnet-4-5-20250101", *turns[0].Model)
	require.Equal(t, int64(100), turns[0].InputTokens)
	require.Equal(t, int64(10), turns[0].CacheReadInputTokens)
}

func TestParseCodexTranscript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uuid-1.jsonl")
	writeFile(t, path, `
{"type":"session_meta","payload":{"model":"gpt-5","cwd":"/work/proj"}}
{"type":"event_msg","timestamp":"2026-01-01T00:00:00Z","payload":{"type":"user_message","message":"add a retry loop"}}
{"type":"event_msg","payload":{"type":"function_call","name":"shell"}}
{"type":"event_msg","payload":{"type":"token_count","last_token_usage":{"input_tokens":200,"output_tokens":80,"cached_input_tokens":20}}}
{"type":"event_msg","timestamp":"2026-01-01T00:00:02Z","payload":{"type":"agent_message","message":"added the retry loop"}}
`)

	title, cwd, model, turns, err := ParseCodexTranscript(path, true)
	require.NoError(t, err)
	require.Equal(t, "add a retry loop", title)
	require.Equal(t, "/work/proj", cwd)
	require.Equal(t, "gpt-5", model)
	require.Len(t, turns, 1)
	require.Equal(t, "add a retry loop", *turns[0].UserMessage)
	require.Equal(t, "added the retry loop", *turns[0].AssistantResponse)
	require.Equal(t, int64(200), turns[0].InputTokens)
	require.Equal(t, `["shell"]`, turns[0].ToolsUsed)
}

func TestParseGeminiTranscriptFlatArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs.json")
	writeFile(t, path, `[{"role":"user","content":"what is 2+2"},{"role":"model","content":"4"}]`)

	title, turns, err := ParseGeminiTranscript(path, true)
	require.NoError(t, err)
	require.Equal(t, "what is 2+2", title)
	require.Len(t, turns, 1)
	require.Equal(t, "4", *turns[0].AssistantResponse)
}

func TestParseGeminiTranscriptWrappedObject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs.json")
	writeFile(t, path, `{"messages":[{"role":"user","text":"ping"},{"role":"model","text":"pong"}]}`)

	_, turns, err := ParseGeminiTranscript(path, false)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Equal(t, "pong", *turns[0].AssistantResponse)
}

func TestImportAllSkipsMissingProviderRoots(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	home := t.TempDir()

	stats, err := ImportAll(ctx, s, home, ImportOptions{SkipExisting: true, SkipDead: true, InferTitles: true})
	require.NoError(t, err)
	require.Equal(t, ImportStats{}, stats)
}

func TestImportAllDedupesOnSecondPass(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	home := t.TempDir()

	path := filepath.Join(home, ".claude", "projects", "demo", "sess-1.jsonl")
	writeFile(t, path, `
{"type":"message","timestamp":"2026-01-01T00:00:00Z","message":{"role":"user","content":"hello"}}
{"type":"message","timestamp":"2026-01-01T00:00:01Z","message":{"role":"assistant","model":"claude-sonnet-4-5-20250101","content":"hi there","usage":{"input_tokens":100,"output_tokens":50}}}
`)

	opts := ImportOptions{SkipExisting: true, SkipDead: true, InferTitles: true}

	stats, err := ImportAll(ctx, s, home, opts)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Imported)

	stats, err = ImportAll(ctx, s, home, opts)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Imported)
	require.Equal(t, 1, stats.Skipped)

	sessions, err := s.ListSessions(ctx, "claude", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Greater(t, sessions[0].TotalCostUSD, 0.0)
}

func TestImportAllSkipsDeadSessions(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	home := t.TempDir()

	path := filepath.Join(home, ".gemini", "tmp", "sess-empty", "logs.json")
	writeFile(t, path, `[]`)

	stats, err := ImportAll(ctx, s, home, ImportOptions{SkipDead: true})
	require.NoError(t, err)
	require.Equal(t, 0, stats.Imported)
	require.Equal(t, 1, stats.Dead)
}
