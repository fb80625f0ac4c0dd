package mcpindex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ToolIndex is the on-disk shape of the tool-index cache (spec §3).
type ToolIndex struct {
	Version   int                       `json:"version"`
	UpdatedAt string                    `json:"updatedAt"`
	ByStack   map[string]StackToolEntry `json:"byStack"`
}

// StackToolEntry is one stack's discovery outcome.
type StackToolEntry struct {
	IndexedAt      string   `json:"indexedAt"`
	Tools          []Tool   `json:"tools,omitempty"`
	Error          string   `json:"error,omitempty"`
	MissingSecrets []string `json:"missingSecrets,omitempty"`
}

const cacheSchemaVersion = 1

func newToolIndex() *ToolIndex {
	return &ToolIndex{Version: cacheSchemaVersion, ByStack: map[string]StackToolEntry{}}
}

// WriteCache atomically persists the index to path (temp+rename, 0600).
func (idx *ToolIndex) WriteCache(path string) error {
	idx.UpdatedAt = nowISO8601()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// LoadCache reads a previously written tool-index cache. A missing file
// is not an error; it yields an empty index.
func LoadCache(path string) (*ToolIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newToolIndex(), nil
		}
		return nil, err
	}
	idx := newToolIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, err
	}
	if idx.ByStack == nil {
		idx.ByStack = map[string]StackToolEntry{}
	}
	return idx, nil
}

func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func msToDuration(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
