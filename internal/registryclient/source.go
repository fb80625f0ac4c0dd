package registryclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prompt-stack/rudi/internal/errorkinds"
)

// contentsEntry mirrors one element of a GitHub contents-API directory
// listing: https://api.github.com/repos/{owner}/{repo}/contents/{path}.
type contentsEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "file" or "dir"
	DownloadURL string `json:"download_url"`
}

// optionalFiles are fetched when present but don't fail the install if
// absent (spec §4.B source-directory strategy).
var optionalFiles = []string{"package.json", ".env.example", "tsconfig.json", "requirements.txt"}

// sourceSubdirs are recursively mirrored into the install root when the
// source listing contains them.
var sourceSubdirs = []string{"src", "dist", "node", "python", "lib"}

// InstallFromSourceDir installs a stack or prompt package whose registry
// entry points at a directory in a contents-API-style source (spec §4.B).
// manifest.json is required; the optional files and source subdirectories
// are fetched only when the listing has them, and a failed download of
// any of them fails the install.
func (c *Client) InstallFromSourceDir(contentsBaseURL string, installDir string) error {
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return err
	}

	entries, err := c.listContents(contentsBaseURL)
	if err != nil {
		return &errorkinds.RegistryUnavailableError{Cause: err}
	}

	byName := make(map[string]contentsEntry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	manifestEntry, ok := byName["manifest.json"]
	if !ok {
		return fmt.Errorf("manifest.json not found at %s", contentsBaseURL)
	}
	if err := c.downloadFile(manifestEntry.DownloadURL, filepath.Join(installDir, "manifest.json")); err != nil {
		return err
	}

	for _, name := range optionalFiles {
		entry, ok := byName[name]
		if !ok || entry.Type != "file" {
			continue
		}
		if err := c.downloadFile(entry.DownloadURL, filepath.Join(installDir, name)); err != nil {
			return fmt.Errorf("download optional file %s: %w", name, err)
		}
	}

	for _, name := range sourceSubdirs {
		entry, ok := byName[name]
		if !ok || entry.Type != "dir" {
			continue
		}
		if err := c.mirrorDir(contentsBaseURL+"/"+name, filepath.Join(installDir, name)); err != nil {
			return fmt.Errorf("mirror %s: %w", name, err)
		}
	}

	return nil
}

// InstallSingleFileDescriptor fetches a single .md prompt descriptor
// verbatim, for registry entries that point at one file rather than a
// directory (spec §4.B single-file fallback).
func (c *Client) InstallSingleFileDescriptor(fileURL, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return c.downloadFile(fileURL, destPath)
}

func (c *Client) mirrorDir(contentsURL, destDir string) error {
	entries, err := c.listContents(contentsURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(destDir, e.Name)
		switch e.Type {
		case "dir":
			if err := c.mirrorDir(contentsURL+"/"+e.Name, target); err != nil {
				return err
			}
		default:
			if err := c.downloadFile(e.DownloadURL, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) listContents(contentsURL string) ([]contentsEntry, error) {
	req, err := http.NewRequest(http.MethodGet, contentsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &errorkinds.DownloadFailedError{URL: contentsURL, Status: resp.StatusCode}
	}

	var entries []contentsEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode contents listing %s: %w", contentsURL, err)
	}
	return entries, nil
}

func (c *Client) downloadFile(url, dest string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &errorkinds.DownloadFailedError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &errorkinds.DownloadFailedError{URL: url, Status: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.ReadFrom(resp.Body)
	return err
}

// BuildContentsURL joins a contents-API base with a repo-relative path.
func BuildContentsURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}
