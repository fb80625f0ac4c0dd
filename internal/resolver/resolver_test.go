package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/platform"
	"github.com/prompt-stack/rudi/internal/registryclient"
)

func testIndex() *registryclient.Index {
	return &registryclient.Index{
		Stacks: registryclient.KindBucket{
			Official: []registryclient.PackageDescriptor{
				{
					ID: "stack:research-agent", Name: "Research Agent", Version: "1.2.0",
					Requires: registryclient.RequiresBlock{
						Runtimes: []string{"node"},
						Binaries: []string{"ripgrep"},
					},
				},
			},
		},
		Runtimes: registryclient.KindBucket{
			Official: []registryclient.PackageDescriptor{
				{ID: "runtime:node", Name: "Node.js", Version: "20.1.0"},
			},
		},
		Binaries: registryclient.KindBucket{
			Official: []registryclient.PackageDescriptor{
				{ID: "binary:ripgrep", Name: "ripgrep", Version: "14.0.0"},
			},
		},
	}
}

func testPaths(t *testing.T) platform.Paths {
	t.Helper()
	p, err := platform.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirectories())
	return p
}

func TestResolveBuildsDependencyTree(t *testing.T) {
	paths := testPaths(t)
	r := New(paths, testIndex())

	root, err := r.Resolve("research-agent")
	require.NoError(t, err)
	require.Equal(t, "stack:research-agent", root.ID)
	require.Len(t, root.Dependencies, 2)
	require.False(t, root.Installed)
}

func TestResolveUnknownPackage(t *testing.T) {
	paths := testPaths(t)
	r := New(paths, testIndex())

	_, err := r.Resolve("stack:does-not-exist")
	require.Error(t, err)
}

func TestInstallOrderDependenciesFirst(t *testing.T) {
	paths := testPaths(t)
	r := New(paths, testIndex())

	root, err := r.Resolve("research-agent")
	require.NoError(t, err)

	order := InstallOrder(root, false)
	require.Len(t, order, 3)
	require.Equal(t, "stack:research-agent", order[len(order)-1].ID)
}

func TestInstallOrderSkipsInstalled(t *testing.T) {
	paths := testPaths(t)

	installDir := paths.InstallDir(string(platform.KindRuntime), "node")
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "manifest.json"), []byte("{}"), 0o644))

	r := New(paths, testIndex())
	root, err := r.Resolve("research-agent")
	require.NoError(t, err)

	order := InstallOrder(root, false)
	require.Len(t, order, 2)
	for _, n := range order {
		require.NotEqual(t, "runtime:node", n.ID)
	}
}

func TestInstallOrderForceReinstallsRoot(t *testing.T) {
	paths := testPaths(t)

	installDir := paths.InstallDir(string(platform.KindStack), "research-agent")
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "manifest.json"), []byte("{}"), 0o644))

	r := New(paths, testIndex())
	root, err := r.Resolve("research-agent")
	require.NoError(t, err)
	require.True(t, root.Installed)

	withoutForce := InstallOrder(root, false)
	require.Len(t, withoutForce, 2, "root already installed, only deps listed")

	withForce := InstallOrder(root, true)
	require.Len(t, withForce, 3, "force reinstalls the root even though installed")
}

func TestSatisfiesVersion(t *testing.T) {
	cases := []struct {
		actual, constraint string
		want                bool
	}{
		{"1.2.0", "", true},
		{"1.2.0", "=1.2.0", true},
		{"1.2.0", ">=1.0.0", true},
		{"1.2.0", ">1.2.0", false},
		{"1.2.0", "<2.0.0", true},
		{"1.2.0", "<=1.2.0", true},
		{"1.2.0", "garbage", true},
		{"not-a-version", ">=1.0.0", true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, SatisfiesVersion(c.actual, c.constraint), "actual=%s constraint=%s", c.actual, c.constraint)
	}
}
