// Package registrar reads and rewrites heterogeneous third-party agent
// config files to add or remove MCP server entries (spec §4.H).
package registrar

import (
	"os"
	"path/filepath"
	"runtime"
)

// Format identifies the on-disk encoding of an agent's config file.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// AgentManifest describes one third-party agent's MCP config surface.
type AgentManifest struct {
	ID     string
	Name   string
	Key    string // JSON key (or TOML table prefix) MCP servers live under
	Format Format
	// Anthropic marks agents whose entries additionally carry type:"stdio".
	Anthropic bool
	// Paths returns the OS-specific candidate config file paths, most
	// preferred first. The first path that exists wins.
	Paths func(home string) []string
}

// Agents is the fixed table of nine supported third-party agents.
var Agents = []AgentManifest{
	{
		ID: "claude-desktop", Name: "Claude Desktop", Key: "mcpServers", Format: FormatJSON, Anthropic: true,
		Paths: func(home string) []string {
			switch runtime.GOOS {
			case "darwin":
				return []string{filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")}
			case "windows":
				return []string{filepath.Join(home, "AppData", "Roaming", "Claude", "claude_desktop_config.json")}
			default:
				return []string{filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")}
			}
		},
	},
	{
		ID: "claude-code", Name: "Claude Code", Key: "mcpServers", Format: FormatJSON, Anthropic: true,
		Paths: func(home string) []string {
			return []string{filepath.Join(home, ".claude.json")}
		},
	},
	{
		ID: "cursor", Name: "Cursor", Key: "mcpServers", Format: FormatJSON,
		Paths: func(home string) []string {
			return []string{filepath.Join(home, ".cursor", "mcp.json")}
		},
	},
	{
		ID: "windsurf", Name: "Windsurf", Key: "mcpServers", Format: FormatJSON,
		Paths: func(home string) []string {
			return []string{filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")}
		},
	},
	{
		ID: "cline", Name: "Cline", Key: "mcpServers", Format: FormatJSON,
		Paths: func(home string) []string {
			switch runtime.GOOS {
			case "darwin":
				return []string{filepath.Join(home, "Library", "Application Support", "Code", "User", "globalStorage", "saoudrizwan.claude-dev", "settings", "cline_mcp_settings.json")}
			case "windows":
				return []string{filepath.Join(home, "AppData", "Roaming", "Code", "User", "globalStorage", "saoudrizwan.claude-dev", "settings", "cline_mcp_settings.json")}
			default:
				return []string{filepath.Join(home, ".config", "Code", "User", "globalStorage", "saoudrizwan.claude-dev", "settings", "cline_mcp_settings.json")}
			}
		},
	},
	{
		ID: "gemini-cli", Name: "Gemini CLI", Key: "mcpServers", Format: FormatJSON,
		Paths: func(home string) []string {
			return []string{filepath.Join(home, ".gemini", "settings.json")}
		},
	},
	{
		ID: "zed", Name: "Zed", Key: "context_servers", Format: FormatJSON,
		Paths: func(home string) []string {
			switch runtime.GOOS {
			case "darwin":
				return []string{filepath.Join(home, ".config", "zed", "settings.json")}
			default:
				return []string{filepath.Join(home, ".config", "zed", "settings.json")}
			}
		},
	},
	{
		ID: "vscode", Name: "VS Code (Copilot)", Key: "servers", Format: FormatJSON,
		Paths: func(home string) []string {
			switch runtime.GOOS {
			case "darwin":
				return []string{filepath.Join(home, "Library", "Application Support", "Code", "User", "mcp.json")}
			case "windows":
				return []string{filepath.Join(home, "AppData", "Roaming", "Code", "User", "mcp.json")}
			default:
				return []string{filepath.Join(home, ".config", "Code", "User", "mcp.json")}
			}
		},
	},
	{
		ID: "codex", Name: "Codex", Key: "mcp_servers", Format: FormatTOML,
		Paths: func(home string) []string {
			return []string{filepath.Join(home, ".codex", "config.toml")}
		},
	},
}

// ResolveConfigPath returns the agent's existing config path (or its
// first candidate path if none exist yet) and whether the agent is
// considered installed (an existing candidate resolved).
func ResolveConfigPath(a AgentManifest, home string) (path string, installed bool) {
	candidates := a.Paths(home)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], false
	}
	return "", false
}

// ByID looks up an agent manifest by its stable id.
func ByID(id string) (AgentManifest, bool) {
	for _, a := range Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentManifest{}, false
}
