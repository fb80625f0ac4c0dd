package mcpindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeEchoServer writes a tiny POSIX shell script that answers the
// initialize/tools/list handshake with a single "echo" tool, matching
// the scenario a stub stack would produce.
func writeEchoServer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-stack.sh")
	script := `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    *'"method":"initialize"'*)
      printf '%s\n' '{"jsonrpc":"2.0","id":1,"result":{}}'
      ;;
    *'"method":"tools/list"'*)
      printf '%s\n' '{"jsonrpc":"2.0","id":2,"result":{"tools":[{"name":"echo"}]}}'
      ;;
  esac
done
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeHangingServer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hanging-stack.sh")
	script := "#!/bin/sh\nsleep 5\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestDiscoverReturnsNormalizedTool(t *testing.T) {
	result := Discover(SpawnSpec{ID: "stack:demo", Bin: "sh", Args: []string{writeEchoServer(t)}, Timeout: 2 * time.Second})
	require.Empty(t, result.Error)
	require.Len(t, result.Tools, 1)
	require.Equal(t, "echo", result.Tools[0].Name)
	require.Equal(t, "echo", result.Tools[0].Description)
	require.NotNil(t, result.Tools[0].InputSchema)
}

func TestDiscoverReportsTimeout(t *testing.T) {
	result := Discover(SpawnSpec{ID: "stack:slow", Bin: "sh", Args: []string{writeHangingServer(t)}, Timeout: 100 * time.Millisecond})
	require.Empty(t, result.Tools)
	require.Contains(t, result.Error, "timeout")
}

func TestDiscoverReportsSpawnFailureForMissingBinary(t *testing.T) {
	result := Discover(SpawnSpec{ID: "stack:missing", Bin: filepath.Join(t.TempDir(), "does-not-exist"), Timeout: time.Second})
	require.Empty(t, result.Tools)
	require.NotEmpty(t, result.Error)
}
