// Package manifest parses and validates stack, prompt, and runtime
// manifests (spec §4.C). Each kind has a YAML schema with a JSON
// equivalent (struct tags cover both via yaml.v3, which also accepts
// plain JSON since JSON is a YAML subset).
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/prompt-stack/rudi/internal/errorkinds"
	"github.com/prompt-stack/rudi/internal/platform"
)

var validate = validator.New()

// RequiresBlock is the ordered set of runtime/binary/agent/npm/pip/secret
// dependency declarations a stack manifest may carry (spec §3).
type RequiresBlock struct {
	Runtimes []string `yaml:"runtimes,omitempty" json:"runtimes,omitempty"`
	Binaries []string `yaml:"binaries,omitempty" json:"binaries,omitempty"`
	Agents   []string `yaml:"agents,omitempty" json:"agents,omitempty"`
	NPM      []string `yaml:"npm,omitempty" json:"npm,omitempty"`
	Pip      []string `yaml:"pip,omitempty" json:"pip,omitempty"`
	Secrets  []SecretRequirement `yaml:"secrets,omitempty" json:"secrets,omitempty"`

	// Legacy singular fallbacks, normalised into the plural fields above.
	Runtime string `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Tools   string `yaml:"tools,omitempty" json:"tools,omitempty"`
}

// SecretRequirement names a secret a stack needs to run.
type SecretRequirement struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Required bool   `yaml:"required" json:"required"`
}

// StackManifest is the manifest for a "stack" package (spec §4.C).
type StackManifest struct {
	ID          string        `yaml:"id" json:"id" validate:"required"`
	Name        string        `yaml:"name" json:"name" validate:"required"`
	Version     string        `yaml:"version" json:"version" validate:"required,semver"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Requires    RequiresBlock `yaml:"requires,omitempty" json:"requires,omitempty"`
	Inputs      []Variable    `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs     []Variable    `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Entry       string        `yaml:"entry,omitempty" json:"entry,omitempty"`
	Command     []string      `yaml:"command,omitempty" json:"command,omitempty"`

	// Legacy single-value command form; normalised into Command.
	MCP *LegacyMCP `yaml:"mcp,omitempty" json:"mcp,omitempty"`

	// Unknown fields preserved verbatim for agent-config round-trips.
	Extra map[string]interface{} `yaml:",inline" json:"-"`
}

// LegacyMCP is the fallback `mcp: {command, args, entry}` shape spec §4.H mentions.
type LegacyMCP struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Entry   string   `yaml:"entry,omitempty" json:"entry,omitempty"`
}

// Variable describes a named input/output slot.
type Variable struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// PromptVariable describes one `{{var}}` placeholder's type and default.
type PromptVariable struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Type     string   `yaml:"type" json:"type" validate:"required,oneof=string text select file"`
	Default  string   `yaml:"default,omitempty" json:"default,omitempty"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// PromptManifest is the manifest for a "prompt" package.
type PromptManifest struct {
	ID        string           `yaml:"id" json:"id" validate:"required"`
	Name      string           `yaml:"name" json:"name" validate:"required"`
	Template  string           `yaml:"template,omitempty" json:"template,omitempty"`
	Variables []PromptVariable `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// RuntimeBinaryDescriptor is a per-platform downloadable artifact for a runtime.
type RuntimeBinaryDescriptor struct {
	URL    string `yaml:"url" json:"url" validate:"required"`
	SHA256 string `yaml:"sha256,omitempty" json:"sha256,omitempty"`
	Size   int64  `yaml:"size,omitempty" json:"size,omitempty"`
}

// RuntimeManifest is the manifest for a "runtime" package.
type RuntimeManifest struct {
	ID       string                             `yaml:"id" json:"id" validate:"required"`
	Name     string                             `yaml:"name" json:"name" validate:"required"`
	Version  string                             `yaml:"version" json:"version" validate:"required"`
	Binaries map[string]RuntimeBinaryDescriptor `yaml:"binaries,omitempty" json:"binaries,omitempty"`
}

// ParseStackManifest loads, normalises, and validates a stack manifest
// from raw YAML/JSON bytes.
func ParseStackManifest(data []byte, source string) (*StackManifest, error) {
	var m StackManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &errorkinds.ManifestInvalidError{Source: source, Errors: []string{err.Error()}}
	}
	normalizeStack(&m)
	if err := validate.Struct(&m); err != nil {
		return nil, &errorkinds.ManifestInvalidError{Source: source, Errors: validationErrors(err)}
	}
	return &m, nil
}

// ParsePromptManifest loads a prompt manifest, pulling the template body
// from a sibling prompt.md when Template is empty.
func ParsePromptManifest(data []byte, dir, source string) (*PromptManifest, error) {
	var m PromptManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &errorkinds.ManifestInvalidError{Source: source, Errors: []string{err.Error()}}
	}
	if !strings.HasPrefix(m.ID, string(platform.KindPrompt)+":") && m.ID != "" {
		m.ID = platform.CreatePackageID(platform.KindPrompt, m.ID)
	}
	if m.Template == "" && dir != "" {
		sidecar := filepath.Join(dir, "prompt.md")
		if body, err := os.ReadFile(sidecar); err == nil {
			m.Template = string(body)
		}
	}
	if err := validate.Struct(&m); err != nil {
		return nil, &errorkinds.ManifestInvalidError{Source: source, Errors: validationErrors(err)}
	}
	return &m, nil
}

// ParseRuntimeManifest loads and validates a runtime manifest.
func ParseRuntimeManifest(data []byte, source string) (*RuntimeManifest, error) {
	var m RuntimeManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &errorkinds.ManifestInvalidError{Source: source, Errors: []string{err.Error()}}
	}
	if !strings.HasPrefix(m.ID, string(platform.KindRuntime)+":") && m.ID != "" {
		m.ID = platform.CreatePackageID(platform.KindRuntime, m.ID)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, &errorkinds.ManifestInvalidError{Source: source, Errors: validationErrors(err)}
	}
	return &m, nil
}

// normalizeStack ensures the id carries the stack: prefix and coerces
// legacy singular requires fields into their ordered-sequence equivalents.
func normalizeStack(m *StackManifest) {
	if m.ID != "" && !strings.Contains(m.ID, ":") {
		m.ID = platform.CreatePackageID(platform.KindStack, m.ID)
	}
	if m.Requires.Runtime != "" {
		m.Requires.Runtimes = appendIfMissing(m.Requires.Runtimes, m.Requires.Runtime)
	}
	if m.Requires.Tools != "" {
		m.Requires.Binaries = appendIfMissing(m.Requires.Binaries, m.Requires.Tools)
	}
	if m.MCP != nil && len(m.Command) == 0 {
		cmd := append([]string{m.MCP.Command}, m.MCP.Args...)
		m.Command = cmd
	}
}

func appendIfMissing(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func validationErrors(err error) []string {
	var out []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			out = append(out, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
		return out
	}
	return []string{err.Error()}
}
