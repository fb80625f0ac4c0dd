package registryclient

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestInferArchiveType(t *testing.T) {
	require.Equal(t, "tar.gz", InferArchiveType("node-v20.tar.gz"))
	require.Equal(t, "tar.gz", InferArchiveType("node-v20.tgz"))
	require.Equal(t, "tar.xz", InferArchiveType("node-v20.tar.xz"))
	require.Equal(t, "zip", InferArchiveType("tool-win32.zip"))
	require.Equal(t, "tar.gz", InferArchiveType("no-extension"))
}

func TestExtractZipWithStrip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "a.zip")
	writeZip(t, archivePath, map[string]string{
		"pkg-1.0/bin/tool": "binary-contents",
		"pkg-1.0/README":   "hello",
	})

	destDir := filepath.Join(dir, "out")
	require.NoError(t, Extract(archivePath, "zip", destDir, 1))

	data, err := os.ReadFile(filepath.Join(destDir, "bin", "tool"))
	require.NoError(t, err)
	require.Equal(t, "binary-contents", string(data))
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "a.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"bin/node": "node-binary",
	})

	destDir := filepath.Join(dir, "out")
	require.NoError(t, Extract(archivePath, "tar.gz", destDir, 0))

	data, err := os.ReadFile(filepath.Join(destDir, "bin", "node"))
	require.NoError(t, err)
	require.Equal(t, "node-binary", string(data))
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../../etc/passwd")
	require.NoError(t, err)
	_, _ = w.Write([]byte("pwned"))
	require.NoError(t, zw.Close())
	f.Close()

	destDir := filepath.Join(dir, "out")
	err = Extract(archivePath, "zip", destDir, 0)
	require.Error(t, err)
}

func TestResolveBinaryGlob(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node-v20.1.0-linux-x64", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node-v20.1.0-linux-x64", "bin", "node"), []byte("x"), 0o644))

	resolved, err := ResolveBinaryGlob(root, "*/bin/node")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "node-v20.1.0-linux-x64", "bin", "node"), resolved)
}

func TestResolveBinaryGlobNoMatch(t *testing.T) {
	root := t.TempDir()
	_, err := ResolveBinaryGlob(root, "*/bin/missing")
	require.Error(t, err)
}

func TestMakeExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, MakeExecutable(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestStripPathRemovesLeadingSegments(t *testing.T) {
	require.Equal(t, filepath.Join("bin", "node"), stripPath("pkg-1.0/bin/node", 1))
	require.Equal(t, "", stripPath("pkg-1.0", 1))
}
