package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/prompt-stack/rudi/internal/resolver"
)

// LockDependency is one dependency entry inside a Lockfile.
type LockDependency struct {
	ID       string `yaml:"id"`
	Version  string `yaml:"version"`
	Checksum string `yaml:"checksum"`
}

// Lockfile is the per-package YAML record written after a successful
// install (spec §3).
type Lockfile struct {
	ID           string           `yaml:"id"`
	Version      string           `yaml:"version"`
	Name         string           `yaml:"name"`
	InstalledAt  string           `yaml:"installedAt"`
	Checksum     string           `yaml:"checksum"`
	Dependencies []LockDependency `yaml:"dependencies"`
}

// checksum hashes a stable serialisation of a node's identifying fields.
// This is not a content hash of installed files; it is a short digest
// letting lockfiles assert "this is the same logical install".
func checksum(id, version string) string {
	sum := sha256.Sum256([]byte(id + "@" + version))
	return hex.EncodeToString(sum[:])[:16]
}

func (inst *Installer) writeLockfile(root *resolver.ResolvedNode) (*Lockfile, error) {
	lf := Lockfile{
		ID: root.ID, Version: root.Version, Name: root.Name,
		InstalledAt: nowISO8601(), Checksum: checksum(root.ID, root.Version),
	}
	for _, dep := range root.Dependencies {
		lf.Dependencies = append(lf.Dependencies, LockDependency{
			ID: dep.ID, Version: dep.Version, Checksum: checksum(dep.ID, dep.Version),
		})
	}

	path := inst.Paths.LockFile(string(root.Kind), root.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(lf)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return &lf, nil
}

func (inst *Installer) removeLockfile(kind, name string) error {
	err := os.Remove(inst.Paths.LockFile(kind, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lockfile for %s:%s: %w", kind, name, err)
	}
	return nil
}
