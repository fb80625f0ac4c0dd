package registryclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prompt-stack/rudi/internal/platform"
)

func newTestClient(t *testing.T) (*Client, platform.Paths) {
	t.Helper()
	home := t.TempDir()
	paths, err := platform.New(home)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	c := NewClient(paths, platform.EnvConfig{}, "")
	c.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	return c, paths
}

func TestFetchIndexUsesFreshCache(t *testing.T) {
	c, paths := newTestClient(t)

	idx := &Index{Stacks: KindBucket{Official: []PackageDescriptor{{ID: "stack:cached"}}}}
	require.NoError(t, c.writeCache(paths.RegistryCacheFile(), idx))

	c.IndexURL = "http://127.0.0.1:1/unreachable"
	got, err := c.FetchIndex(false)
	require.NoError(t, err)
	require.Len(t, got.Stacks.Official, 1)
	require.Equal(t, "stack:cached", got.Stacks.Official[0].ID)
}

func TestFetchIndexFallsBackToStaleCacheOnFetchFailure(t *testing.T) {
	c, paths := newTestClient(t)

	idx := &Index{Stacks: KindBucket{Official: []PackageDescriptor{{ID: "stack:stale"}}}}
	require.NoError(t, c.writeCache(paths.RegistryCacheFile(), idx))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(paths.RegistryCacheFile(), old, old))

	c.IndexURL = "http://127.0.0.1:1/unreachable"
	got, err := c.FetchIndex(false)
	require.NoError(t, err)
	require.Equal(t, "stack:stale", got.Stacks.Official[0].ID)
}

func TestFetchIndexErrorsWhenNothingAvailable(t *testing.T) {
	c, _ := newTestClient(t)
	c.IndexURL = "http://127.0.0.1:1/unreachable"

	_, err := c.FetchIndex(false)
	require.Error(t, err)
}

func TestFetchIndexFetchesRemoteAndCaches(t *testing.T) {
	c, paths := newTestClient(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := Index{Runtimes: KindBucket{Official: []PackageDescriptor{{ID: "runtime:node"}}}}
		_ = json.NewEncoder(w).Encode(idx)
	}))
	defer srv.Close()

	c.IndexURL = srv.URL
	got, err := c.FetchIndex(true)
	require.NoError(t, err)
	require.Equal(t, "runtime:node", got.Runtimes.Official[0].ID)

	_, err = os.Stat(paths.RegistryCacheFile())
	require.NoError(t, err)
}

func TestFetchIndexPrefersNewerLocalOverride(t *testing.T) {
	c, paths := newTestClient(t)

	stale := &Index{Stacks: KindBucket{Official: []PackageDescriptor{{ID: "stack:cached"}}}}
	require.NoError(t, c.writeCache(paths.RegistryCacheFile(), stale))

	localDir := t.TempDir()
	c.LocalIndexDir = localDir
	local := &Index{Stacks: KindBucket{Official: []PackageDescriptor{{ID: "stack:local-dev"}}}}
	data, err := json.Marshal(local)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "index.json"), data, 0o644))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(localDir, "index.json"), future, future))

	got, err := c.FetchIndex(false)
	require.NoError(t, err)
	require.Equal(t, "stack:local-dev", got.Stacks.Official[0].ID)
}
