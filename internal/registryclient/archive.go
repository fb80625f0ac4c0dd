package registryclient

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/prompt-stack/rudi/internal/errorkinds"
)

// InferArchiveType maps a URL/filename extension to an archive type when
// the descriptor doesn't declare one explicitly (spec §4.B).
func InferArchiveType(name string) string {
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(name, ".tar.xz"):
		return "tar.xz"
	case strings.HasSuffix(name, ".zip"):
		return "zip"
	default:
		return "tar.gz"
	}
}

// Extract unpacks an archive of the given type into destDir.
// stripComponents removes that many leading path segments, mirroring
// `tar --strip-components`.
func Extract(archivePath, archiveType, destDir string, stripComponents int) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	var err error
	switch archiveType {
	case "zip":
		err = extractZip(archivePath, destDir, stripComponents)
	case "tar.gz", "tgz":
		err = extractTarGz(archivePath, destDir, stripComponents)
	case "tar.xz":
		err = extractTarXz(archivePath, destDir, stripComponents)
	default:
		err = fmt.Errorf("unsupported archive type %q", archiveType)
	}
	if err != nil {
		return &errorkinds.ExtractFailedError{Archive: archivePath, Type: archiveType, Cause: err}
	}
	return nil
}

func extractZip(src, dest string, strip int) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := stripPath(f.Name, strip)
		if name == "" {
			continue
		}
		target := filepath.Join(dest, name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) && target != filepath.Clean(dest) {
			return fmt.Errorf("illegal file path in archive: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := copyZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func copyZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func extractTarGz(src, dest string, strip int) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	return extractTarStream(gz, dest, strip)
}

// extractTarXz shells out to the system `tar` binary (xz decompression is
// not in the standard library, and the teacher itself shells out to `tar`
// for archive extraction in its installer subprocess calls).
func extractTarXz(src, dest string, strip int) error {
	args := []string{"-xJf", src, "-C", dest}
	if strip > 0 {
		args = append(args, fmt.Sprintf("--strip-components=%d", strip))
	}
	cmd := exec.Command("tar", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tar -xJf: %w: %s", err, string(out))
	}
	return nil
}

func extractTarStream(r io.Reader, dest string, strip int) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := stripPath(hdr.Name, strip)
		if name == "" {
			continue
		}
		target := filepath.Join(dest, name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) && target != filepath.Clean(dest) {
			return fmt.Errorf("illegal file path in archive: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}

func stripPath(name string, strip int) string {
	parts := strings.Split(filepath.ToSlash(name), "/")
	if strip >= len(parts) {
		return ""
	}
	return filepath.Join(parts[strip:]...)
}

// ResolveBinaryGlob finds the first path under root matching a pattern
// where "*" matches any single path component (spec §4.B).
func ResolveBinaryGlob(root, pattern string) (string, error) {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	return resolveGlobSegments(root, segments)
}

func resolveGlobSegments(current string, segments []string) (string, error) {
	if len(segments) == 0 {
		return current, nil
	}
	seg := segments[0]
	if seg != "*" {
		next := filepath.Join(current, seg)
		if _, err := os.Stat(next); err != nil {
			return "", err
		}
		return resolveGlobSegments(next, segments[1:])
	}
	entries, err := os.ReadDir(current)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		candidate := filepath.Join(current, e.Name())
		if resolved, err := resolveGlobSegments(candidate, segments[1:]); err == nil {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("no match for glob segment %q under %s", seg, current)
}

// MakeExecutable sets mode 0755 on every declared binary path.
func MakeExecutable(paths ...string) error {
	for _, p := range paths {
		if err := os.Chmod(p, 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", p, err)
		}
	}
	return nil
}
