package installer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/prompt-stack/rudi/internal/registryclient"
	"github.com/prompt-stack/rudi/internal/resolver"
)

// writeSynthesizedManifest records a post-download manifest.json for a
// source-downloaded stack/prompt or agent package (spec §4.E).
func (inst *Installer) writeSynthesizedManifest(node *resolver.ResolvedNode, installDir, source, sourcePath string) error {
	mf := &registryclient.InstallManifest{
		ID: node.ID, Kind: string(node.Kind), Name: node.Name, Version: node.Version,
		InstalledAt: time.Now().UTC(), Source: source, SourcePath: sourcePath,
	}
	return writeInstallManifestFile(installDir, mf, "")
}

func writeInstallManifestFile(installDir string, mf *registryclient.InstallManifest, sourcePath string) error {
	if sourcePath != "" {
		mf.SourcePath = sourcePath
	}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(installDir, "manifest.json"), data, 0o644)
}
