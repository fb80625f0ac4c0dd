package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prompt-stack/rudi/internal/manifest"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
)

// excludedFromLocalCopy are skipped when copying a local stack directory
// into the install root (spec §4.E installFromLocal).
var excludedFromLocalCopy = map[string]bool{"node_modules": true, ".git": true}

// InstallFromLocal reads the stack manifest from dir, computes the
// install path, replaces any existing install, copies dir recursively
// (excluding node_modules and .git), and records source:"local".
func (inst *Installer) InstallFromLocal(dir string) (*manifest.StackManifest, error) {
	data, source, err := readStackManifestFile(dir)
	if err != nil {
		return nil, err
	}

	m, err := manifest.ParseStackManifest(data, source)
	if err != nil {
		return nil, err
	}

	_, name, err := platform.ParsePackageID(m.ID)
	if err != nil {
		return nil, err
	}
	installDir := inst.Paths.InstallDir(string(platform.KindStack), name)

	if err := os.RemoveAll(installDir); err != nil {
		return nil, fmt.Errorf("clear existing install: %w", err)
	}
	if err := copyDirExcluding(dir, installDir, excludedFromLocalCopy); err != nil {
		return nil, err
	}

	mf := &registryclient.InstallManifest{
		ID: m.ID, Kind: string(platform.KindStack), Name: m.Name, Version: m.Version,
		InstalledAt: time.Now().UTC(), Source: "local",
	}
	if err := writeInstallManifestFile(installDir, mf, dir); err != nil {
		return nil, err
	}
	return m, nil
}

func readStackManifestFile(dir string) ([]byte, string, error) {
	for _, name := range []string{"stack.yaml", "manifest.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
	}
	return nil, "", fmt.Errorf("no stack.yaml or manifest.yaml found in %s", dir)
}

func copyDirExcluding(src, dst string, excluded map[string]bool) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if excluded[info.Name()] && info.IsDir() {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFileMode(path, target, info.Mode())
	})
}

func copyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
