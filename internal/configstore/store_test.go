package configstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/platform"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	p, err := platform.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirectories())
	return New(p)
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	s := testStore(t)
	doc, err := s.InitConfig()
	require.NoError(t, err)
	require.True(t, doc.Installed)
	require.Equal(t, currentSchemaVersion, doc.SchemaVersion)

	info, err := os.Stat(s.Paths.ConfigFile())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestInitConfigIsIdempotent(t *testing.T) {
	s := testStore(t)
	first, err := s.InitConfig()
	require.NoError(t, err)

	second, err := s.InitConfig()
	require.NoError(t, err)
	require.Equal(t, first.InstalledAt.Unix(), second.InstalledAt.Unix())
}

func TestAddStackDerivesLaunchAndSecrets(t *testing.T) {
	s := testStore(t)
	_, err := s.InitConfig()
	require.NoError(t, err)

	doc, err := s.AddStack("stack:demo", "Demo", "1.0.0", "/path/to/demo",
		[]string{"node", "dist/index.js"}, "node",
		[]StackSecretRef{{Name: "OPENAI_API_KEY", Required: true}})
	require.NoError(t, err)

	stack, ok := doc.Stacks["stack:demo"]
	require.True(t, ok)
	require.Equal(t, []string{"dist/index.js"}, stack.Launch.Args)
	require.Equal(t, "/path/to/demo", stack.Launch.Cwd)

	sec, ok := doc.Secrets["OPENAI_API_KEY"]
	require.True(t, ok)
	require.False(t, sec.Configured)
	require.Equal(t, "stack:demo", sec.Stack)
}

func TestRemoveStackDropsUnreferencedSecrets(t *testing.T) {
	s := testStore(t)
	_, err := s.InitConfig()
	require.NoError(t, err)

	_, err = s.AddStack("stack:demo", "Demo", "1.0.0", "/demo", nil, "node",
		[]StackSecretRef{{Name: "SHARED_KEY", Required: true}})
	require.NoError(t, err)
	_, err = s.AddStack("stack:other", "Other", "1.0.0", "/other", nil, "node",
		[]StackSecretRef{{Name: "SHARED_KEY", Required: true}})
	require.NoError(t, err)

	doc, err := s.RemoveStack("stack:other")
	require.NoError(t, err)
	_, stillInStacks := doc.Stacks["stack:other"]
	require.False(t, stillInStacks)

	_, secretStillTracked := doc.Secrets["SHARED_KEY"]
	require.True(t, secretStillTracked, "stack:demo still requires it")

	doc, err = s.RemoveStack("stack:demo")
	require.NoError(t, err)
	_, secretStillTracked = doc.Secrets["SHARED_KEY"]
	require.False(t, secretStillTracked)
}

func TestUpdateStackToolsReplacesCachedTools(t *testing.T) {
	s := testStore(t)
	_, err := s.InitConfig()
	require.NoError(t, err)
	_, err = s.AddStack("stack:demo", "Demo", "1.0.0", "/demo", nil, "node", nil)
	require.NoError(t, err)

	doc, err := s.UpdateStackTools("stack:demo", []CachedTool{{Name: "echo", Description: "echo"}})
	require.NoError(t, err)
	require.Len(t, doc.Stacks["stack:demo"].Tools, 1)
}

func TestConcurrentUpdatesProduceValidJSON(t *testing.T) {
	s := testStore(t)
	_, err := s.InitConfig()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.AddRuntime("node", RuntimeRecord{Bin: "node", Version: "20"})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(s.Paths.ConfigFile())
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	info, err := os.Stat(s.Paths.ConfigFile())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireLockRemovesStaleLockFile(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "rudi.json.lock")
	require.NoError(t, os.WriteFile(lockPath, []byte("999999"), 0o644))

	release, err := acquireLock(lockPath)
	require.NoError(t, err)
	release()

	_, err = os.Stat(lockPath)
	require.True(t, os.IsNotExist(err))
}

func TestCreateLaunchConfigSynthesizesDefaultsForEmptyCommand(t *testing.T) {
	lc := createLaunchConfig(nil, "python", "/stack", "/runtimes/python/bin/python")
	require.Equal(t, []string{"-u", "src/server.py"}, lc.Args)
	require.Equal(t, "/runtimes/python/bin/python", lc.Bin)
}

func TestCreateLaunchConfigSubstitutesBundledRuntime(t *testing.T) {
	lc := createLaunchConfig([]string{"node", "dist/index.js"}, "node", "/stack", "/runtimes/node/bin/node")
	require.Equal(t, "/runtimes/node/bin/node", lc.Bin)
	require.Equal(t, []string{"dist/index.js"}, lc.Args)
}

func TestCreateLaunchConfigSubstitutesNpx(t *testing.T) {
	lc := createLaunchConfig([]string{"npx", "tsx", "src/index.ts"}, "node", "/stack", "/runtimes/node/bin/node")
	require.Equal(t, "/runtimes/node/bin/npx", lc.Bin)
}
