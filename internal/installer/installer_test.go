package installer

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/configstore"
	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
)

func testInstaller(t *testing.T) (*Installer, platform.Paths) {
	t.Helper()
	paths, err := platform.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	client := registryclient.NewClient(paths, platform.EnvConfig{}, "")
	client.HTTPClient = &http.Client{}

	return New(paths, client, configstore.New(paths)), paths
}

func TestChecksumStableForSameIdentity(t *testing.T) {
	require.Equal(t, checksum("stack:demo", "1.0.0"), checksum("stack:demo", "1.0.0"))
	require.NotEqual(t, checksum("stack:demo", "1.0.0"), checksum("stack:demo", "1.0.1"))
}

func TestUninstallRemovesDirAndLockfile(t *testing.T) {
	inst, paths := testInstaller(t)

	installDir := paths.InstallDir(string(platform.KindStack), "demo")
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "manifest.json"), []byte("{}"), 0o644))

	lockPath := paths.LockFile(string(platform.KindStack), "demo")
	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o755))
	require.NoError(t, os.WriteFile(lockPath, []byte("id: stack:demo\n"), 0o644))

	require.NoError(t, inst.Uninstall(platform.KindStack, "demo"))

	_, err := os.Stat(installDir)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(lockPath)
	require.True(t, os.IsNotExist(err))
}

func TestListInstalledSkipsHiddenAndReadsManifests(t *testing.T) {
	inst, paths := testInstaller(t)

	for _, name := range []string{"demo", ".hidden"} {
		dir := filepath.Join(paths.Stacks, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		if name == "demo" {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"),
				[]byte(`{"id":"stack:demo","kind":"stack","name":"demo","version":"1.0.0"}`), 0o644))
		}
	}

	records, err := inst.ListInstalled(platform.KindStack)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "stack:demo", records[0].ID)
}

func TestListInstalledEmptyKindReturnsNoError(t *testing.T) {
	inst, _ := testInstaller(t)
	records, err := inst.ListInstalled(platform.KindPrompt)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestIsGitSourceDetectsRemotes(t *testing.T) {
	require.True(t, isGitSource("https://github.com/owner/repo.git"))
	require.True(t, isGitSource("git@github.com:owner/repo.git"))
	require.False(t, isGitSource("stacks/demo"))
}

func TestSplitGitRef(t *testing.T) {
	remote, ref := splitGitRef("https://github.com/owner/repo@v1.2.0")
	require.Equal(t, "https://github.com/owner/repo", remote)
	require.Equal(t, "v1.2.0", ref)

	remote, ref = splitGitRef("git@github.com:owner/repo.git")
	require.Equal(t, "git@github.com:owner/repo.git", remote)
	require.Empty(t, ref)
}

func TestInstallFromLocalCopiesExcludingGitAndNodeModules(t *testing.T) {
	inst, _ := testInstaller(t)

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "stack.yaml"), []byte("id: stack:local-demo\nname: Local Demo\nversion: 1.0.0\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "node_modules", "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "node_modules", "x", "index.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "entry.js"), []byte("console.log('hi')"), 0o644))

	m, err := inst.InstallFromLocal(srcDir)
	require.NoError(t, err)
	require.Equal(t, "stack:local-demo", m.ID)

	installDir := inst.Paths.InstallDir(string(platform.KindStack), "local-demo")
	_, err = os.Stat(filepath.Join(installDir, "entry.js"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(installDir, "node_modules"))
	require.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(installDir, "manifest.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"source": "local"`)
}
