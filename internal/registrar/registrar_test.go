package registrar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/manifest"
)

func TestResolveConfigPathReportsUninstalledWhenNoCandidateExists(t *testing.T) {
	home := t.TempDir()
	a, ok := ByID("cursor")
	require.True(t, ok)

	path, installed := ResolveConfigPath(a, home)
	require.False(t, installed)
	require.Equal(t, filepath.Join(home, ".cursor", "mcp.json"), path)
}

func TestResolveConfigPathReportsInstalledWhenCandidateExists(t *testing.T) {
	home := t.TempDir()
	a, ok := ByID("cursor")
	require.True(t, ok)

	path, _ := ResolveConfigPath(a, home)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, installed := ResolveConfigPath(a, home)
	require.True(t, installed)
}

func TestBuildMcpConfigRewritesRelativePathsAbsolute(t *testing.T) {
	m := &manifest.StackManifest{Command: []string{"node", "dist/index.js"}}
	cfg := BuildMcpConfig(m, "/install/demo", false)
	require.NotNil(t, cfg)
	require.Equal(t, "node", cfg.Command)
	require.Equal(t, []string{"/install/demo/dist/index.js"}, cfg.Args)
}

func TestBuildMcpConfigUsesLegacyMcpObject(t *testing.T) {
	m := &manifest.StackManifest{MCP: &manifest.LegacyMCP{Command: "python3", Args: []string{"server.py"}}}
	cfg := BuildMcpConfig(m, "/install/demo", false)
	require.NotNil(t, cfg)
	require.Equal(t, "python3", cfg.Command)
	require.Equal(t, []string{"/install/demo/server.py"}, cfg.Args)
}

func TestBuildMcpConfigReturnsNilForNonMcpStack(t *testing.T) {
	m := &manifest.StackManifest{}
	require.Nil(t, BuildMcpConfig(m, "/install/demo", false))
}

func TestBuildMcpConfigAddsAnthropicType(t *testing.T) {
	m := &manifest.StackManifest{Command: []string{"node", "dist/index.js"}}
	cfg := BuildMcpConfig(m, "/install/demo", true)
	require.Equal(t, "stdio", cfg.Type)
}

func TestApplyCompiledEntryOptimizationPrefersCompiledJS(t *testing.T) {
	installDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(installDir, "dist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "dist", "server.js"), []byte("x"), 0o644))

	m := &manifest.StackManifest{Command: []string{"npx", "tsx", "src/server.ts"}}
	cfg := BuildMcpConfig(m, installDir, false)
	require.Equal(t, "node", cfg.Command)
	require.Equal(t, []string{filepath.Join(installDir, "dist", "server.js")}, cfg.Args)
}

func TestApplyCompiledEntryOptimizationKeepsTsxWhenNoCompiledSibling(t *testing.T) {
	installDir := t.TempDir()
	m := &manifest.StackManifest{Command: []string{"npx", "tsx", "src/server.ts"}}
	cfg := BuildMcpConfig(m, installDir, false)
	require.Equal(t, "npx", cfg.Command)
	require.Equal(t, []string{"tsx", filepath.Join(installDir, "src", "server.ts")}, cfg.Args)
}

func TestBuildMcpConfigReadsDotEnv(t *testing.T) {
	installDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(installDir, ".env"), []byte("API_KEY=abc123\nEMPTY=\n"), 0o644))

	m := &manifest.StackManifest{Command: []string{"node", "dist/index.js"}}
	cfg := BuildMcpConfig(m, installDir, false)
	require.Equal(t, map[string]string{"API_KEY": "abc123"}, cfg.Env)
}

func TestRegisterMcpAllWritesJSONEntryForInstalledAgent(t *testing.T) {
	home := t.TempDir()
	cursorPath := filepath.Join(home, ".cursor", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cursorPath), 0o755))
	require.NoError(t, os.WriteFile(cursorPath, []byte(`{"mcpServers":{"other":{"command":"x"}}}`), 0o644))

	r := New(home)
	m := &manifest.StackManifest{Command: []string{"node", "dist/index.js"}}
	results := r.RegisterMcpAll("stack:demo", "/install/demo", m, []string{"cursor"})

	res, ok := results["cursor"]
	require.True(t, ok)
	require.True(t, res.Success)

	doc, err := readJSONConfig(cursorPath)
	require.NoError(t, err)
	servers := doc["mcpServers"].(map[string]interface{})
	require.Contains(t, servers, "stack:demo")
	require.Contains(t, servers, "other")
}

func TestRegisterMcpAllSkipsUninstalledAgents(t *testing.T) {
	home := t.TempDir()
	r := New(home)
	m := &manifest.StackManifest{Command: []string{"node", "dist/index.js"}}
	results := r.RegisterMcpAll("stack:demo", "/install/demo", m, []string{"windsurf"})

	require.True(t, results["windsurf"].Skipped)
	require.Equal(t, "Agent not installed", results["windsurf"].Reason)
}

func TestRegisterMcpAllSkipsNonMcpStacks(t *testing.T) {
	home := t.TempDir()
	r := New(home)
	results := r.RegisterMcpAll("stack:demo", "/install/demo", &manifest.StackManifest{}, nil)
	for _, res := range results {
		require.True(t, res.Skipped)
	}
}

func TestRegisterAndUnregisterTOMLAgent(t *testing.T) {
	home := t.TempDir()
	codexPath := filepath.Join(home, ".codex", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(codexPath), 0o755))
	require.NoError(t, os.WriteFile(codexPath, []byte("model = \"gpt-5\"\n"), 0o644))

	r := New(home)
	m := &manifest.StackManifest{Command: []string{"node", "dist/index.js"}}
	results := r.RegisterMcpAll("demo", "/install/demo", m, []string{"codex"})
	require.True(t, results["codex"].Success)

	data, err := os.ReadFile(codexPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "[mcp_servers.demo]")
	require.Contains(t, string(data), "model = \"gpt-5\"")

	unregResults := r.UnregisterMcpAll("demo", []string{"codex"})
	require.True(t, unregResults["codex"].Success)

	data, err = os.ReadFile(codexPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "mcp_servers.demo")
}

func TestUnregisterMcpAllReportsSkippedWhenNoEntry(t *testing.T) {
	home := t.TempDir()
	cursorPath := filepath.Join(home, ".cursor", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cursorPath), 0o755))
	require.NoError(t, os.WriteFile(cursorPath, []byte(`{}`), 0o644))

	r := New(home)
	results := r.UnregisterMcpAll("stack:ghost", []string{"cursor"})
	require.True(t, results["cursor"].Skipped)
}

func TestGetMcpRegistrationSummaryReflectsCurrentState(t *testing.T) {
	home := t.TempDir()
	cursorPath := filepath.Join(home, ".cursor", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cursorPath), 0o755))
	require.NoError(t, os.WriteFile(cursorPath, []byte(`{"mcpServers":{"stack:demo":{"command":"node"}}}`), 0o644))

	r := New(home)
	summary := r.GetMcpRegistrationSummary("stack:demo")
	require.True(t, summary["cursor"].Installed)
	require.True(t, summary["cursor"].Registered)
	require.False(t, summary["windsurf"].Installed)
}
