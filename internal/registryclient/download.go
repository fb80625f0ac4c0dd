package registryclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/prompt-stack/rudi/internal/errorkinds"
	"github.com/prompt-stack/rudi/internal/logger"
	"github.com/prompt-stack/rudi/internal/platform"
)

// InstallManifest is the per-install manifest.json record (spec §3, §6).
type InstallManifest struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	InstalledAt  time.Time `json:"installedAt"`
	Source       string    `json:"source"`
	SourcePath   string    `json:"sourcePath,omitempty"`
	PlatformArch string    `json:"platformArch,omitempty"`
	Binaries     []string  `json:"binaries,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// downloadToTemp fetches a URL into a per-URL temp file, reusing an
// already-downloaded file when the same URL is requested twice (the
// multi-download strategy may reference one URL more than once).
func (c *Client) downloadToTemp(dir, url string) (string, error) {
	dest := filepath.Join(dir, urlFileName(url))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &errorkinds.DownloadFailedError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", &errorkinds.DownloadFailedError{URL: url, Status: resp.StatusCode}
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, fmt.Sprintf("downloading %s", filepath.Base(url)))
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		os.Remove(dest)
		return "", &errorkinds.DownloadFailedError{URL: url, Cause: err}
	}
	return dest, nil
}

func urlFileName(url string) string {
	base := filepath.Base(url)
	if base == "" || base == "." || base == "/" {
		return "artifact.bin"
	}
	return base
}

// InstallArtifact downloads the descriptor's per-platform downloads
// entries, or else its single upstream archive for this platform, and
// writes manifest.json.
func (c *Client) InstallArtifact(kind platform.Kind, d *PackageDescriptor, installDir string) (*InstallManifest, error) {
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp(c.Paths.Downloads, "rudi-dl-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	pa := platform.PlatformArch()
	var binaries []string

	switch {
	case len(d.Downloads[pa]) > 0:
		binaries, err = c.installMultiDownload(d.Downloads[pa], tempDir, installDir)
	case d.Upstream[pa] != "":
		entry := DownloadEntry{URL: d.Upstream[pa], Type: d.Extract[pa]}
		binaries, err = c.installMultiDownload([]DownloadEntry{entry}, tempDir, installDir)
	default:
		return nil, fmt.Errorf("no download strategy available for %s on %s", d.ID, pa)
	}
	if err != nil {
		return nil, err
	}

	if err := MakeExecutable(binaries...); err != nil {
		logger.Warnf("failed to chmod binaries for %s: %v", d.ID, err)
	}

	names := make([]string, len(binaries))
	for i, b := range binaries {
		names[i] = filepath.Base(b)
	}

	mf := &InstallManifest{
		ID: d.ID, Kind: string(kind), Name: d.Name, Version: d.Version,
		InstalledAt: time.Now().UTC(), Source: "registry",
		PlatformArch: pa, Binaries: names,
	}
	return mf, c.writeManifest(installDir, mf)
}

// installMultiDownload downloads each unique URL once, extracts it, and
// relocates each declared binary into installDir, resolving glob segments.
func (c *Client) installMultiDownload(entries []DownloadEntry, tempDir, installDir string) ([]string, error) {
	extractedByURL := make(map[string]string)
	var binaries []string

	for _, entry := range entries {
		extractDir, ok := extractedByURL[entry.URL]
		if !ok {
			archivePath, err := c.downloadToTemp(tempDir, entry.URL)
			if err != nil {
				return nil, err
			}
			archiveType := entry.Type
			if archiveType == "" {
				archiveType = InferArchiveType(entry.URL)
			}
			extractDir = filepath.Join(tempDir, "extracted-"+urlFileName(entry.URL))
			if err := Extract(archivePath, archiveType, extractDir, 0); err != nil {
				return nil, err
			}
			extractedByURL[entry.URL] = extractDir
		}

		if entry.Binary == "" {
			continue
		}
		resolved, err := ResolveBinaryGlob(extractDir, entry.Binary)
		if err != nil {
			return nil, fmt.Errorf("resolve binary %q: %w", entry.Binary, err)
		}
		dest := filepath.Join(installDir, filepath.Base(resolved))
		if err := copyFile(resolved, dest); err != nil {
			return nil, err
		}
		binaries = append(binaries, dest)
	}
	return binaries, nil
}

// DownloadRuntimePrerelease fetches <runtime>-<shortVersion>-<platformArch>.tar.gz
// from the known release base, extracts with --strip-components=1, and
// writes runtime.json metadata (spec §4.B strategy 3).
func (c *Client) DownloadRuntimePrerelease(runtimeName, shortVersion, releaseBaseURL, installDir string) (*InstallManifest, error) {
	pa := platform.PlatformArch()
	url := fmt.Sprintf("%s/%s-%s-%s.tar.gz", releaseBaseURL, runtimeName, shortVersion, pa)

	tempDir, err := os.MkdirTemp(c.Paths.Downloads, "rudi-runtime-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	archivePath, err := c.downloadToTemp(tempDir, url)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return nil, err
	}
	if err := Extract(archivePath, "tar.gz", installDir, 1); err != nil {
		return nil, err
	}

	meta := map[string]string{"name": runtimeName, "version": shortVersion, "platformArch": pa}
	metaData, _ := json.MarshalIndent(meta, "", "  ")
	if err := os.WriteFile(filepath.Join(installDir, "runtime.json"), metaData, 0o644); err != nil {
		return nil, err
	}

	mf := &InstallManifest{
		ID: platform.CreatePackageID(platform.KindRuntime, runtimeName), Kind: string(platform.KindRuntime),
		Name: runtimeName, Version: shortVersion, InstalledAt: time.Now().UTC(),
		Source: "registry", PlatformArch: pa,
	}
	return mf, c.writeManifest(installDir, mf)
}

func (c *Client) writeManifest(installDir string, mf *InstallManifest) error {
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(installDir, "manifest.json"), data, 0o644)
}

// WritePlaceholderManifest records a failed download as a placeholder
// install so the registry state stays consistent for idempotent retries
// (spec §4.E, design notes open question — implemented as specified).
func (c *Client) WritePlaceholderManifest(kind platform.Kind, d *PackageDescriptor, installDir string, cause error) error {
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return err
	}
	logger.Warnf("install of %s failed, writing placeholder manifest: %v", d.ID, cause)
	mf := &InstallManifest{
		ID: d.ID, Kind: string(kind), Name: d.Name, Version: d.Version,
		InstalledAt: time.Now().UTC(), Source: "placeholder", Error: cause.Error(),
	}
	return c.writeManifest(installDir, mf)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
