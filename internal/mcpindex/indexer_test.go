package mcpindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/configstore"
)

func TestIndexAllDiscoversToolsForHealthyStack(t *testing.T) {
	ix := New(nil)
	entries := []StackEntry{
		{ID: "stack:demo", Launch: configstore.LaunchConfig{Bin: "sh", Args: []string{writeEchoServer(t)}}},
	}

	idx := ix.IndexAll(entries)
	entry, ok := idx.ByStack["stack:demo"]
	require.True(t, ok)
	require.Empty(t, entry.Error)
	require.Len(t, entry.Tools, 1)
	require.Equal(t, "echo", entry.Tools[0].Name)
}

func TestIndexAllRecordsMissingRequiredSecretsWithoutSpawning(t *testing.T) {
	ix := New(func(name string) (string, bool) { return "", false })
	entries := []StackEntry{
		{
			ID:      "stack:needs-secret",
			Launch:  configstore.LaunchConfig{Bin: "sh", Args: []string{writeEchoServer(t)}},
			Secrets: []configstore.StackSecretRef{{Name: "API_KEY", Required: true}},
		},
	}

	idx := ix.IndexAll(entries)
	entry := idx.ByStack["stack:needs-secret"]
	require.Empty(t, entry.Tools)
	require.Equal(t, []string{"API_KEY"}, entry.MissingSecrets)
	require.Contains(t, entry.Error, "API_KEY")
}

func TestIndexAllSkipsOptionalSecretsWhenUnconfigured(t *testing.T) {
	ix := New(func(name string) (string, bool) { return "", false })
	entries := []StackEntry{
		{
			ID:      "stack:optional-secret",
			Launch:  configstore.LaunchConfig{Bin: "sh", Args: []string{writeEchoServer(t)}},
			Secrets: []configstore.StackSecretRef{{Name: "OPTIONAL_TOKEN", Required: false}},
		},
	}

	idx := ix.IndexAll(entries)
	entry := idx.ByStack["stack:optional-secret"]
	require.Empty(t, entry.Error)
	require.Len(t, entry.Tools, 1)
}

func TestIndexAllReportsMissingLaunchBinary(t *testing.T) {
	ix := New(nil)
	entries := []StackEntry{
		{ID: "stack:ghost", Launch: configstore.LaunchConfig{Bin: filepath.Join(t.TempDir(), "nope")}},
	}

	idx := ix.IndexAll(entries)
	entry := idx.ByStack["stack:ghost"]
	require.Contains(t, entry.Error, "launch binary not found")
}

func TestStackEntriesFromDocumentExtractsAllStacks(t *testing.T) {
	doc := &configstore.Document{
		Stacks: map[string]configstore.StackConfig{
			"stack:a": {ID: "stack:a", Launch: configstore.LaunchConfig{Bin: "/bin/a"}},
			"stack:b": {ID: "stack:b", Launch: configstore.LaunchConfig{Bin: "/bin/b"}},
		},
	}
	entries := StackEntriesFromDocument(doc)
	require.Len(t, entries, 2)
}

func TestWriteAndLoadCacheRoundTrips(t *testing.T) {
	idx := newToolIndex()
	idx.ByStack["stack:demo"] = StackToolEntry{IndexedAt: "2026-01-01T00:00:00Z", Tools: []Tool{{Name: "echo", Description: "echo"}}}

	path := filepath.Join(t.TempDir(), "tool-index.json")
	require.NoError(t, idx.WriteCache(path))

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Version)
	require.Len(t, loaded.ByStack["stack:demo"].Tools, 1)
}

func TestLoadCacheMissingFileReturnsEmptyIndex(t *testing.T) {
	idx, err := LoadCache(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Empty(t, idx.ByStack)
}
