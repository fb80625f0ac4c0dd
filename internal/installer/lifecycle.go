package installer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
)

// Uninstall removes the install directory recursively and the derived
// lockfile (spec §4.E).
func (inst *Installer) Uninstall(kind platform.Kind, name string) error {
	installDir := inst.Paths.InstallDir(string(kind), name)
	if err := os.RemoveAll(installDir); err != nil {
		return err
	}
	return inst.removeLockfile(string(kind), name)
}

// InstalledRecord is one entry ListInstalled returns, merged from a
// manifest.json or legacy runtime.json.
type InstalledRecord struct {
	registryclient.InstallManifest
	InstallDir string
}

// ListInstalled reads every subdirectory of the given kind's root,
// merging manifest.json (or runtime.json) records. Directories
// beginning with "." are skipped.
func (inst *Installer) ListInstalled(kind platform.Kind) ([]InstalledRecord, error) {
	root := inst.kindRoot(kind)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []InstalledRecord
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, e.Name())
		mf, err := readManifestAny(dir)
		if err != nil {
			continue
		}
		records = append(records, InstalledRecord{InstallManifest: *mf, InstallDir: dir})
	}
	return records, nil
}

func (inst *Installer) kindRoot(kind platform.Kind) string {
	switch kind {
	case platform.KindStack:
		return inst.Paths.Stacks
	case platform.KindPrompt:
		return inst.Paths.Prompts
	case platform.KindRuntime:
		return inst.Paths.Runtimes
	case platform.KindBinary:
		return inst.Paths.Binaries
	case platform.KindAgent:
		return inst.Paths.Agents
	default:
		return inst.Paths.Packages
	}
}

func readManifestAny(dir string) (*registryclient.InstallManifest, error) {
	for _, name := range []string{"manifest.json", "runtime.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var mf registryclient.InstallManifest
		if err := json.Unmarshal(data, &mf); err != nil {
			return nil, err
		}
		return &mf, nil
	}
	return nil, os.ErrNotExist
}

// Update is semantically equal to InstallPackage(id, {Force: true}).
func (inst *Installer) Update(id string, onProgress OnProgress) (Result, error) {
	return inst.InstallPackage(id, Options{Force: true, OnProgress: onProgress})
}

// UpdateAll iterates every kind's list-installed output and updates
// each package, reporting per-package success/failure without aborting
// the batch (spec §4.E). Independent updates run concurrently via
// errgroup.
func (inst *Installer) UpdateAll(onProgress OnProgress) ([]Result, error) {
	var ids []string
	for _, kind := range []platform.Kind{platform.KindStack, platform.KindPrompt, platform.KindRuntime, platform.KindBinary, platform.KindAgent} {
		records, err := inst.ListInstalled(kind)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			ids = append(ids, r.ID)
		}
	}

	results := make([]Result, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			res, err := inst.Update(id, onProgress)
			if err != nil {
				results[i] = Result{Success: false, ID: id, Error: err}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
