package mcpindex

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prompt-stack/rudi/internal/configstore"
)

// StackEntry is the subset of stack configuration the indexer needs.
type StackEntry struct {
	ID      string
	Launch  configstore.LaunchConfig
	Secrets []configstore.StackSecretRef
}

// Indexer walks every configured stack, probes it over stdio, and
// produces a ToolIndex ready to be written to the cache file.
type Indexer struct {
	Timeout     int64 // ms, 0 uses defaultTimeout
	SecretValue func(name string) (value string, configured bool)
}

// New builds an Indexer. secretValue resolves a secret's configured
// value (empty/false when unset); passing nil treats every secret as
// unconfigured, which will skip stacks that require one.
func New(secretValue func(name string) (string, bool)) *Indexer {
	if secretValue == nil {
		secretValue = func(string) (string, bool) { return "", false }
	}
	return &Indexer{SecretValue: secretValue}
}

// IndexAll probes each stack sequentially (spec §4.G: indexing is not
// parallelised, since stacks may compete for the same bundled runtime).
func (ix *Indexer) IndexAll(stacks []StackEntry) *ToolIndex {
	idx := newToolIndex()
	for _, s := range stacks {
		idx.ByStack[s.ID] = ix.indexOne(s)
	}
	return idx
}

func (ix *Indexer) indexOne(s StackEntry) StackToolEntry {
	entry := StackToolEntry{IndexedAt: nowISO8601()}

	if missing := missingRequiredSecrets(s.Secrets, ix.SecretValue); len(missing) > 0 {
		entry.MissingSecrets = missing
		entry.Error = fmt.Sprintf("Missing required secrets: %s", strings.Join(missing, ", "))
		return entry
	}

	if s.Launch.Bin == "" {
		entry.Error = "stack has no launch.bin configured"
		return entry
	}
	if _, err := exec.LookPath(s.Launch.Bin); err != nil {
		entry.Error = fmt.Sprintf("launch binary not found: %s", s.Launch.Bin)
		return entry
	}

	result := Discover(SpawnSpec{
		ID:      s.ID,
		Bin:     s.Launch.Bin,
		Args:    s.Launch.Args,
		Cwd:     s.Launch.Cwd,
		Env:     buildEnv(s, ix.SecretValue),
		Timeout: msToDuration(ix.Timeout),
	})

	if result.Error != "" {
		entry.Error = result.Error
		return entry
	}
	entry.Tools = result.Tools
	return entry
}

func missingRequiredSecrets(refs []configstore.StackSecretRef, lookup func(string) (string, bool)) []string {
	var missing []string
	for _, ref := range refs {
		if !ref.Required {
			continue
		}
		if _, ok := lookup(ref.Name); !ok {
			missing = append(missing, ref.Name)
		}
	}
	sort.Strings(missing)
	return missing
}

// buildEnv overlays the stack's secret values onto the parent
// environment and prepends the launch binary's own directory to PATH,
// so a bundled npx can still find its sibling node.
func buildEnv(s StackEntry, lookup func(string) (string, bool)) []string {
	env := os.Environ()

	if dir := filepath.Dir(s.Launch.Bin); dir != "." && dir != "" {
		env = prependPath(env, dir)
	}

	for _, ref := range s.Secrets {
		if value, ok := lookup(ref.Name); ok && value != "" {
			env = append(env, ref.Name+"="+value)
		}
	}
	return env
}

func prependPath(env []string, dir string) []string {
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + dir + string(os.PathListSeparator) + kv[len("PATH="):]
			return env
		}
	}
	return append(env, "PATH="+dir)
}
