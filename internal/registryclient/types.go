// Package registryclient fetches and caches the registry index, resolves
// package metadata and download URLs, and downloads/extracts artifacts
// into each package's install directory (spec §4.B).
package registryclient

import "github.com/prompt-stack/rudi/internal/platform"

// DownloadEntry is one file a multi-download descriptor fetches for a
// given platform tag.
type DownloadEntry struct {
	URL    string `json:"url"`
	Type   string `json:"type,omitempty"`
	Binary string `json:"binary,omitempty"`
}

// RequiresBlock mirrors manifest.RequiresBlock's ordered dependency sets
// as they appear on a registry descriptor.
type RequiresBlock struct {
	Runtimes []string `json:"runtimes,omitempty"`
	Binaries []string `json:"binaries,omitempty"`
	Agents   []string `json:"agents,omitempty"`

	// Legacy singular fallbacks.
	Runtime string `json:"runtime,omitempty"`
	Tools   string `json:"tools,omitempty"`
}

// PackageDescriptor is one catalog entry in the registry index (spec §3).
type PackageDescriptor struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Version     string                    `json:"version"`
	Description string                    `json:"description"`
	Tags        []string                  `json:"tags,omitempty"`
	Path        string                    `json:"path,omitempty"`
	NPMPackage  string                    `json:"npmPackage,omitempty"`
	PipPackage  string                    `json:"pipPackage,omitempty"`
	Binary      string                    `json:"binary,omitempty"`
	Binaries    []string                  `json:"binaries,omitempty"`
	Downloads   map[string][]DownloadEntry `json:"downloads,omitempty"`
	Upstream    map[string]string         `json:"upstream,omitempty"`
	Extract     map[string]string         `json:"extract,omitempty"`
	Requires    RequiresBlock             `json:"requires,omitempty"`
	SHA256      string                    `json:"sha256,omitempty"`
}

// KindBucket is the {official, community} split every kind section carries.
type KindBucket struct {
	Official  []PackageDescriptor `json:"official"`
	Community []PackageDescriptor `json:"community"`
}

// Index is the top-level registry document (spec §3, §6).
type Index struct {
	Stacks   KindBucket `json:"stacks"`
	Prompts  KindBucket `json:"prompts"`
	Runtimes KindBucket `json:"runtimes"`
	Binaries KindBucket `json:"binaries"`
	Agents   KindBucket `json:"agents"`
}

// bucket returns the KindBucket for a given package kind.
func (idx *Index) bucket(kind platform.Kind) *KindBucket {
	switch kind {
	case platform.KindStack:
		return &idx.Stacks
	case platform.KindPrompt:
		return &idx.Prompts
	case platform.KindRuntime:
		return &idx.Runtimes
	case platform.KindBinary:
		return &idx.Binaries
	case platform.KindAgent:
		return &idx.Agents
	default:
		return nil
	}
}

// all kinds in the fixed order search/get-package iterate when
// no kind filter is given.
var allKinds = []platform.Kind{
	platform.KindStack, platform.KindPrompt, platform.KindRuntime,
	platform.KindBinary, platform.KindAgent,
}

// SearchHit is one match returned by Search, with its kind attached.
type SearchHit struct {
	Kind platform.Kind
	PackageDescriptor
}
