package registrar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/prompt-stack/rudi/internal/manifest"
)

// AgentResult is one agent's outcome from a register/unregister call.
type AgentResult struct {
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	Reason     string `json:"reason,omitempty"`
	ConfigPath string `json:"configPath,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Registrar reads and rewrites third-party agent config files. It does
// not take the Config Store lock; it operates on files it does not own
// and assumes the caller serialises install/uninstall per stack.
type Registrar struct {
	Home string
}

// New builds a Registrar rooted at the given home directory.
func New(home string) *Registrar {
	return &Registrar{Home: home}
}

func targetSet(targetAgents []string) map[string]bool {
	if len(targetAgents) == 0 {
		return nil
	}
	set := make(map[string]bool, len(targetAgents))
	for _, id := range targetAgents {
		set[id] = true
	}
	return set
}

// RegisterMcpAll inserts-or-replaces the stack's MCP entry into every
// installed agent (optionally filtered to targetAgents).
func (r *Registrar) RegisterMcpAll(stackID, installDir string, m *manifest.StackManifest, targetAgents []string) map[string]AgentResult {
	results := make(map[string]AgentResult, len(Agents))
	filter := targetSet(targetAgents)

	cfg := BuildMcpConfig(m, installDir, false)
	anthropicCfg := BuildMcpConfig(m, installDir, true)
	if cfg == nil {
		for _, a := range Agents {
			if filter != nil && !filter[a.ID] {
				continue
			}
			results[a.ID] = AgentResult{Skipped: true, Reason: "not an MCP stack"}
		}
		return results
	}

	for _, a := range Agents {
		if filter != nil && !filter[a.ID] {
			continue
		}
		entry := cfg
		if a.Anthropic {
			entry = anthropicCfg
		}
		results[a.ID] = r.registerOne(a, stackID, entry)
	}
	return results
}

func (r *Registrar) registerOne(a AgentManifest, stackID string, cfg *McpConfig) AgentResult {
	path, installed := ResolveConfigPath(a, r.Home)
	if !installed {
		return AgentResult{Skipped: true, Reason: "Agent not installed"}
	}

	switch a.Format {
	case FormatTOML:
		return r.registerTOML(a, path, stackID, cfg)
	default:
		return r.registerJSON(a, path, stackID, cfg)
	}
}

func (r *Registrar) registerJSON(a AgentManifest, path, stackID string, cfg *McpConfig) AgentResult {
	doc, err := readJSONConfig(path)
	if err != nil {
		return AgentResult{Error: fmt.Sprintf("read %s: %v", path, err), ConfigPath: path}
	}
	servers := nestedObject(doc, a.Key)
	servers[stackID] = mcpConfigToJSON(cfg)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return AgentResult{Error: err.Error(), ConfigPath: path}
	}
	if err := writeJSONConfig(path, doc); err != nil {
		return AgentResult{Error: fmt.Sprintf("write %s: %v", path, err), ConfigPath: path}
	}
	return AgentResult{Success: true, ConfigPath: path}
}

func (r *Registrar) registerTOML(a AgentManifest, path, stackID string, cfg *McpConfig) AgentResult {
	doc, err := readTomlDocument(path)
	if err != nil {
		return AgentResult{Error: fmt.Sprintf("read %s: %v", path, err), ConfigPath: path}
	}

	tableName := a.Key + "." + stackID

	keys := []string{"command", "cwd"}
	values := map[string]string{"command": tomlQuoteString(cfg.Command), "cwd": tomlQuoteString(cfg.Cwd)}
	if len(cfg.Args) > 0 {
		keys = append(keys, "args")
		values["args"] = tomlStringArray(cfg.Args)
	}
	if cfg.Type != "" {
		keys = append(keys, "type")
		values["type"] = tomlQuoteString(cfg.Type)
	}
	doc.setTable(tableName, keys, values)

	if len(cfg.Env) > 0 {
		envKeys := sortedKeys(cfg.Env)
		envValues := make(map[string]string, len(cfg.Env))
		for _, k := range envKeys {
			envValues[k] = tomlQuoteString(cfg.Env[k])
		}
		doc.setTable(tableName+".env", envKeys, envValues)
	} else {
		doc.removeTable(tableName + ".env")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return AgentResult{Error: err.Error(), ConfigPath: path}
	}
	if err := writeTomlDocument(path, doc); err != nil {
		return AgentResult{Error: fmt.Sprintf("write %s: %v", path, err), ConfigPath: path}
	}
	return AgentResult{Success: true, ConfigPath: path}
}

// UnregisterMcpAll removes the stack's MCP entry from every installed
// agent; a missing key is reported as skipped, not an error.
func (r *Registrar) UnregisterMcpAll(stackID string, targetAgents []string) map[string]AgentResult {
	results := make(map[string]AgentResult, len(Agents))
	filter := targetSet(targetAgents)

	for _, a := range Agents {
		if filter != nil && !filter[a.ID] {
			continue
		}
		results[a.ID] = r.unregisterOne(a, stackID)
	}
	return results
}

func (r *Registrar) unregisterOne(a AgentManifest, stackID string) AgentResult {
	path, installed := ResolveConfigPath(a, r.Home)
	if !installed {
		return AgentResult{Skipped: true, Reason: "Agent not installed"}
	}

	switch a.Format {
	case FormatTOML:
		doc, err := readTomlDocument(path)
		if err != nil {
			return AgentResult{Error: fmt.Sprintf("read %s: %v", path, err), ConfigPath: path}
		}
		removed := doc.removeTable(a.Key + "." + stackID)
		doc.removeTable(a.Key + "." + stackID + ".env")
		if !removed {
			return AgentResult{Skipped: true, Reason: "no entry for stack", ConfigPath: path}
		}
		if err := writeTomlDocument(path, doc); err != nil {
			return AgentResult{Error: fmt.Sprintf("write %s: %v", path, err), ConfigPath: path}
		}
		return AgentResult{Success: true, ConfigPath: path}
	default:
		doc, err := readJSONConfig(path)
		if err != nil {
			return AgentResult{Error: fmt.Sprintf("read %s: %v", path, err), ConfigPath: path}
		}
		servers := nestedObject(doc, a.Key)
		if _, ok := servers[stackID]; !ok {
			return AgentResult{Skipped: true, Reason: "no entry for stack", ConfigPath: path}
		}
		delete(servers, stackID)
		if err := writeJSONConfig(path, doc); err != nil {
			return AgentResult{Error: fmt.Sprintf("write %s: %v", path, err), ConfigPath: path}
		}
		return AgentResult{Success: true, ConfigPath: path}
	}
}

// RegistrationSnapshot is one agent's current registration state for a
// stack, as reported by GetMcpRegistrationSummary.
type RegistrationSnapshot struct {
	Installed  bool   `json:"installed"`
	Registered bool   `json:"registered"`
	ConfigPath string `json:"configPath,omitempty"`
}

// GetMcpRegistrationSummary snapshots current registrations across all
// agents without mutating anything. When stackID is empty, Registered
// always reports false (no single stack to check against).
func (r *Registrar) GetMcpRegistrationSummary(stackID string) map[string]RegistrationSnapshot {
	summary := make(map[string]RegistrationSnapshot, len(Agents))
	for _, a := range Agents {
		path, installed := ResolveConfigPath(a, r.Home)
		snap := RegistrationSnapshot{Installed: installed, ConfigPath: path}
		if installed && stackID != "" {
			snap.Registered = r.isRegistered(a, path, stackID)
		}
		summary[a.ID] = snap
	}
	return summary
}

func (r *Registrar) isRegistered(a AgentManifest, path, stackID string) bool {
	switch a.Format {
	case FormatTOML:
		doc, err := readTomlDocument(path)
		if err != nil {
			return false
		}
		return doc.table(a.Key+"."+stackID) != nil
	default:
		doc, err := readJSONConfig(path)
		if err != nil {
			return false
		}
		servers, ok := doc[a.Key].(map[string]interface{})
		if !ok {
			return false
		}
		_, ok = servers[stackID]
		return ok
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
