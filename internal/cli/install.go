package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/installer"
	"github.com/prompt-stack/rudi/internal/manifest"
	"github.com/prompt-stack/rudi/internal/platform"
)

func newInstallCommand() *cobra.Command {
	var force bool
	var fromDir string

	cmd := &cobra.Command{
		Use:   "install [kind:name]",
		Short: "Install a package (runtime, binary, stack, prompt, or agent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromDir != "" {
				return runInstallLocal(fromDir)
			}
			if len(args) != 1 {
				return fmt.Errorf("install requires a kind:name argument, or --from-dir")
			}
			return runInstallRegistry(args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "reinstall even if already installed")
	cmd.Flags().StringVar(&fromDir, "from-dir", "", "install a stack from a local directory containing stack.yaml")
	return cmd
}

func runInstallRegistry(id string, force bool) error {
	PrintInfo("resolving %s", id)
	result, err := theApp.Installer.InstallPackage(id, installer.Options{
		Force: force,
		OnProgress: func(ev installer.ProgressEvent) {
			switch ev.Phase {
			case installer.PhaseDownloading:
				PrintBullet("downloading %s", ev.Package)
			case installer.PhaseExtracting:
				PrintBullet("extracting %s", ev.Package)
			case installer.PhaseInstalling:
				if ev.Total > 0 {
					PrintBullet("installing %s (%d/%d)", ev.Package, ev.Current, ev.Total)
				} else {
					PrintBullet("installing %s", ev.Package)
				}
			}
		},
	})
	if err != nil {
		PrintError("install failed: %v", err)
		return err
	}
	if !result.Success {
		PrintError("install failed: %v", result.Error)
		return result.Error
	}
	PrintSuccess("installed %s", result.ID)
	recordInstallHistory(result)
	maybeRegisterStack(result.ID)
	return nil
}

func runInstallLocal(dir string) error {
	m, err := theApp.Installer.InstallFromLocal(dir)
	if err != nil {
		PrintError("install from %s failed: %v", dir, err)
		return err
	}
	PrintSuccess("installed %s from %s", m.ID, dir)
	recordLocalInstallHistory(m.ID, m.Name, m.Version)
	maybeRegisterStack(m.ID)
	return nil
}

// maybeRegisterStack registers a freshly-installed stack's MCP entry
// into every installed agent config, best-effort: a stack manifest that
// can't be reloaded (e.g. a non-stack kind) is silently skipped.
func maybeRegisterStack(id string) {
	kind, name, err := platform.ParsePackageID(id)
	if err != nil || kind != platform.KindStack {
		return
	}
	installDir := theApp.Paths.InstallDir(string(platform.KindStack), name)
	m, err := loadStackManifest(installDir)
	if err != nil {
		return
	}
	results := theApp.Registrar.RegisterMcpAll(id, installDir, m, nil)
	for agentID, res := range results {
		if res.Skipped {
			continue
		}
		if res.Success {
			PrintBullet("registered with %s", agentID)
		} else {
			PrintWarning("failed to register with %s: %s", agentID, res.Error)
		}
	}
}

func loadStackManifest(dir string) (*manifest.StackManifest, error) {
	for _, name := range []string{"stack.yaml", "manifest.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return manifest.ParseStackManifest(data, path)
	}
	return nil, fmt.Errorf("no stack manifest found in %s", dir)
}
