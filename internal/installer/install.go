package installer

import (
	"fmt"

	"github.com/prompt-stack/rudi/internal/errorkinds"
	"github.com/prompt-stack/rudi/internal/logger"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
	"github.com/prompt-stack/rudi/internal/resolver"
)

// InstallPackage ensures the directory layout exists, resolves
// dependencies, computes install order, and installs every node in
// order. The lockfile is written only after the whole batch succeeds.
func (inst *Installer) InstallPackage(id string, opts Options) (Result, error) {
	if err := inst.Paths.EnsureDirectories(); err != nil {
		return Result{}, err
	}

	emit(opts.OnProgress, ProgressEvent{Phase: PhaseResolving, Package: id})

	idx, err := inst.Registry.FetchIndex(false)
	if err != nil {
		return Result{}, err
	}

	r := resolver.New(inst.Paths, idx)
	root, err := r.Resolve(id)
	if err != nil {
		return Result{}, err
	}

	if root.Installed && !opts.Force {
		return Result{Success: true, ID: root.ID}, nil
	}

	order := resolver.InstallOrder(root, opts.Force)
	var missing []string

	for i, node := range order {
		emit(opts.OnProgress, ProgressEvent{
			Phase: PhaseInstalling, Package: node.ID, Total: len(order), Current: i + 1,
		})

		if err := inst.installNode(node, opts); err != nil {
			missing = append(missing, node.ID)
			if node.ID == root.ID {
				return Result{Success: false, ID: root.ID, Error: err}, err
			}
			return Result{Success: false, ID: root.ID, Error: &errorkinds.DependencyUnsatisfiedError{Missing: missing}}, err
		}
	}

	emit(opts.OnProgress, ProgressEvent{Phase: PhaseLockfile, Package: root.ID})
	lf, err := inst.writeLockfile(root)
	if err != nil {
		return Result{Success: false, ID: root.ID, Error: err}, err
	}

	var dependsOn []string
	for _, dep := range root.Dependencies {
		dependsOn = append(dependsOn, dep.ID)
	}

	emit(opts.OnProgress, ProgressEvent{Phase: PhaseInstalled, Package: root.ID})
	return Result{
		Success: true, ID: root.ID, Kind: root.Kind, Name: root.Name, Version: root.Version,
		DependsOn: dependsOn, Lockfile: lf,
	}, nil
}

// installNode dispatches to the per-kind strategy spec §4.E's table
// names: runtime/binary download with placeholder fallback, agent
// npm/pip-backed install, stack/prompt source download.
func (inst *Installer) installNode(node *resolver.ResolvedNode, opts Options) error {
	installDir := inst.Paths.InstallDir(string(node.Kind), node.Name)

	switch node.Kind {
	case platform.KindRuntime, platform.KindBinary:
		return inst.installDownloadable(node, installDir, opts)
	case platform.KindAgent:
		return inst.installAgentPackage(node, installDir, opts)
	case platform.KindStack, platform.KindPrompt:
		return inst.installSourcePackage(node, installDir, opts)
	default:
		return fmt.Errorf("unknown package kind %q", node.Kind)
	}
}

// installDownloadable handles runtime/binary: tarball download first
// (the descriptor's npm/pip hints are consulted by the agent path, not
// here), falling back to a placeholder manifest on failure so retries
// stay idempotent (spec §4.E failure semantics).
func (inst *Installer) installDownloadable(node *resolver.ResolvedNode, installDir string, opts Options) error {
	emit(opts.OnProgress, ProgressEvent{Phase: PhaseDownloading, Package: node.ID})

	_, err := inst.Registry.InstallArtifact(node.Kind, node.Descriptor, installDir)
	if err != nil {
		logger.Warnf("download failed for %s, writing placeholder: %v", node.ID, err)
		if phErr := inst.Registry.WritePlaceholderManifest(node.Kind, node.Descriptor, installDir, err); phErr != nil {
			return phErr
		}
		return nil
	}

	emit(opts.OnProgress, ProgressEvent{Phase: PhaseExtracting, Package: node.ID})
	return nil
}

// installSourcePackage downloads a stack/prompt's source directory and
// synthesises manifest.json recording source:"registry" (spec §4.E).
func (inst *Installer) installSourcePackage(node *resolver.ResolvedNode, installDir string, opts Options) error {
	emit(opts.OnProgress, ProgressEvent{Phase: PhaseDownloading, Package: node.ID})

	d := node.Descriptor
	switch {
	case isGitSource(d.Path):
		if err := inst.installFromGit(d.Path, installDir); err != nil {
			return err
		}
	case d.Path != "":
		contentsURL := registryclient.BuildContentsURL(inst.Registry.IndexURL, d.Path)
		if err := inst.Registry.InstallFromSourceDir(contentsURL, installDir); err != nil {
			return err
		}
	default:
		return fmt.Errorf("descriptor %s has no source path", d.ID)
	}

	return inst.writeSynthesizedManifest(node, installDir, "registry", "")
}
