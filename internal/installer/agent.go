package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/prompt-stack/rudi/internal/logger"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/resolver"
)

// installAgentPackage installs a third-party agent, preferring an
// npm-backed install (via the bundled Node package manager when
// present) and falling back to a pip-backed virtualenv install (spec
// §4.E).
func (inst *Installer) installAgentPackage(node *resolver.ResolvedNode, installDir string, opts Options) error {
	d := node.Descriptor
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return err
	}

	switch {
	case d.NPMPackage != "":
		emit(opts.OnProgress, ProgressEvent{Phase: PhaseInstalling, Package: node.ID, Message: "npm install " + d.NPMPackage})
		if err := inst.npmInstall(installDir, d.NPMPackage); err != nil {
			return err
		}
	case d.PipPackage != "":
		emit(opts.OnProgress, ProgressEvent{Phase: PhaseInstalling, Package: node.ID, Message: "pip install " + d.PipPackage})
		if err := inst.pipInstall(installDir, d.PipPackage); err != nil {
			return err
		}
	default:
		return fmt.Errorf("agent descriptor %s declares neither npmPackage nor pipPackage", d.ID)
	}

	return inst.writeSynthesizedManifest(node, installDir, "registry", "")
}

// npmInstall runs `npm install <pkg>` inside installDir, preferring the
// bundled runtime's npm when RESOURCES_PATH names one (spec §6), then
// rudi's installed node runtime, then the system npm.
func (inst *Installer) npmInstall(installDir, pkg string) error {
	npmBin := "npm"
	candidates := []string{filepath.Join(inst.Paths.Runtimes, "node", "bin", "npm")}
	if envCfg, err := platform.LoadEnvConfig(); err == nil && envCfg.ResourcesPath != "" {
		bundled := filepath.Join(envCfg.ResourcesPath, "bundled-runtimes", "node", "bin", "npm")
		candidates = append([]string{bundled}, candidates...)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			npmBin = candidate
			break
		}
	}

	cmd := exec.Command(npmBin, "install", pkg)
	cmd.Dir = installDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Warnf("npm install failed in %s: %v: %s", installDir, err, out)
		return fmt.Errorf("npm install %s: %w", pkg, err)
	}
	return nil
}

// pipInstall creates <installDir>/venv using the bundled Python when
// available (else system python3) and installs pkg into it.
func (inst *Installer) pipInstall(installDir, pkg string) error {
	pythonBin := "python3"
	bundled := filepath.Join(inst.Paths.Runtimes, "python", "bin", "python3")
	if _, err := os.Stat(bundled); err == nil {
		pythonBin = bundled
	}

	venvDir := filepath.Join(installDir, "venv")
	if err := exec.Command(pythonBin, "-m", "venv", venvDir).Run(); err != nil {
		return fmt.Errorf("create venv: %w", err)
	}

	pip := filepath.Join(venvDir, "bin", "pip")
	cmd := exec.Command(pip, "install", pkg)
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Warnf("pip install failed in %s: %v: %s", venvDir, err, out)
		return fmt.Errorf("pip install %s: %w", pkg, err)
	}
	return nil
}
