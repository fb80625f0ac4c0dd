package registrar

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/prompt-stack/rudi/internal/manifest"
)

// McpConfig is the MCP server entry written into a third-party agent's
// config file.
type McpConfig struct {
	Command string            `json:"command"`
	Cwd     string            `json:"cwd"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Type    string            `json:"type,omitempty"`
}

// BuildMcpConfig derives the MCP entry for a stack from its manifest
// (spec §4.H). A nil return means the stack is not an MCP stack and the
// caller should skip it silently.
func BuildMcpConfig(m *manifest.StackManifest, installDir string, anthropic bool) *McpConfig {
	command := rawCommand(m)
	if len(command) == 0 {
		return nil
	}

	resolved := make([]string, len(command))
	for i, part := range command {
		resolved[i] = resolvePathLike(part, installDir)
	}

	cfg := &McpConfig{Command: resolved[0], Cwd: installDir, Args: resolved[1:]}
	applyCompiledEntryOptimization(cfg, installDir)

	if env := readDotEnv(installDir); len(env) > 0 {
		cfg.Env = env
	}
	if anthropic {
		cfg.Type = "stdio"
	}
	return cfg
}

func rawCommand(m *manifest.StackManifest) []string {
	if len(m.Command) > 0 {
		return m.Command
	}
	if m.MCP != nil {
		return append([]string{m.MCP.Command}, m.MCP.Args...)
	}
	return nil
}

func pathLike(s string) bool {
	if s == "" {
		return false
	}
	return strings.HasPrefix(s, ".") || strings.ContainsAny(s, "/\\")
}

func resolvePathLike(s, installDir string) string {
	if filepath.IsAbs(s) || !pathLike(s) {
		return s
	}
	return filepath.Join(installDir, s)
}

// applyCompiledEntryOptimization rewrites an `npx ... tsx .../X.ts`
// launch to `node <installDir>/dist/X.js` when the compiled sibling
// exists, trading a ~5x slower tsx boot for a direct node invocation
// (spec §4.H).
func applyCompiledEntryOptimization(cfg *McpConfig, installDir string) {
	if filepath.Base(cfg.Command) != "npx" && cfg.Command != "npx" {
		return
	}
	hasTsx := false
	var tsFile string
	for _, a := range cfg.Args {
		if a == "tsx" {
			hasTsx = true
		}
		if strings.HasSuffix(a, ".ts") {
			tsFile = a
		}
	}
	if !hasTsx || tsFile == "" {
		return
	}

	compiled := compiledSibling(tsFile)
	if compiled == "" {
		return
	}
	if !filepath.IsAbs(compiled) {
		compiled = filepath.Join(installDir, compiled)
	}
	if _, err := os.Stat(compiled); err != nil {
		return
	}

	cfg.Command = "node"
	cfg.Args = []string{compiled}
}

// compiledSibling maps a src/X.ts path to its dist/X.js counterpart.
func compiledSibling(tsPath string) string {
	dir := filepath.Dir(tsPath)
	base := strings.TrimSuffix(filepath.Base(tsPath), ".ts") + ".js"
	if filepath.Base(dir) == "src" {
		return filepath.Join(filepath.Dir(dir), "dist", base)
	}
	return filepath.Join(dir, "dist", base)
}

// readDotEnv parses installDir/.env (KEY=VAL, optional quoting, #
// comments) into a map of non-empty values. A missing file yields nil.
func readDotEnv(installDir string) map[string]string {
	path := filepath.Join(installDir, ".env")
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil
	}
	env := make(map[string]string, len(vars))
	for k, v := range vars {
		if v != "" {
			env[k] = v
		}
	}
	return env
}
