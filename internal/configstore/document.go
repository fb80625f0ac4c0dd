// Package configstore owns the central JSON document describing
// installed runtimes, stacks, binaries, and required secrets, guarded by
// an advisory file lock (spec §4.F).
package configstore

import "time"

// RuntimeRecord is one entry under document.Runtimes.
type RuntimeRecord struct {
	Path    string `json:"path"`
	Bin     string `json:"bin"`
	Version string `json:"version"`
}

// LaunchConfig is the normalised launch record derived by
// createLaunchConfig (spec §4.F).
type LaunchConfig struct {
	Bin  string   `json:"bin"`
	Args []string `json:"args"`
	Cwd  string   `json:"cwd"`
}

// StackSecretRef is one secret a stack declares as required/optional.
type StackSecretRef struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// CachedTool is one MCP tool discovered by component G.
type CachedTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

// StackConfig is one entry under document.Stacks.
type StackConfig struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Version string           `json:"version"`
	Path    string           `json:"path"`
	Launch  LaunchConfig     `json:"launch"`
	Secrets []StackSecretRef `json:"secrets,omitempty"`
	Tools   []CachedTool     `json:"tools,omitempty"`
}

// BinaryConfig is one entry under document.Binaries.
type BinaryConfig struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// SecretConfig tracks configuration status for one secret name.
type SecretConfig struct {
	Configured  bool       `json:"configured"`
	Provider    string     `json:"provider"`
	Stack       string     `json:"stack,omitempty"`
	Required    bool       `json:"required"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Document is the central config document's on-disk shape.
type Document struct {
	Version       int                     `json:"version"`
	SchemaVersion int                     `json:"schemaVersion"`
	Installed     bool                    `json:"installed"`
	InstalledAt   time.Time               `json:"installedAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
	Runtimes      map[string]RuntimeRecord `json:"runtimes"`
	Stacks        map[string]StackConfig   `json:"stacks"`
	Binaries      map[string]BinaryConfig  `json:"binaries"`
	Secrets       map[string]SecretConfig  `json:"secrets"`
}

const currentSchemaVersion = 1

// createRudiConfig builds the default document for a fresh install.
func createRudiConfig() *Document {
	now := time.Now().UTC()
	return &Document{
		Version:       1,
		SchemaVersion: currentSchemaVersion,
		Installed:     true,
		InstalledAt:   now,
		UpdatedAt:     now,
		Runtimes:      map[string]RuntimeRecord{},
		Stacks:        map[string]StackConfig{},
		Binaries:      map[string]BinaryConfig{},
		Secrets:       map[string]SecretConfig{},
	}
}
