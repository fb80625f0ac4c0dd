package registryclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prompt-stack/rudi/internal/errorkinds"
	"github.com/prompt-stack/rudi/internal/logger"
	"github.com/prompt-stack/rudi/internal/platform"
)

const (
	cacheTTL       = 24 * time.Hour
	defaultIndexURL = "https://registry.rudi.dev/index.json"
)

// Client fetches and caches the registry index and downloads artifacts.
type Client struct {
	Paths         platform.Paths
	IndexURL      string
	LocalIndexDir string // dev override path; empty disables it
	HTTPClient    *http.Client
}

// NewClient builds a Client from resolved paths and environment overrides.
func NewClient(paths platform.Paths, envCfg platform.EnvConfig, localIndexDir string) *Client {
	c := &Client{
		Paths:      paths,
		IndexURL:   defaultIndexURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
	if envCfg.UseLocalRegistry {
		c.LocalIndexDir = localIndexDir
	}
	return c
}

// FetchIndex returns the registry index, preferring (in order): a newer
// local dev-override index, a fresh cache (<=24h old), then a live HTTP
// fetch. When the fetch fails it falls back to the cached index however
// old, then to the local index, and otherwise fails (spec §4.B).
func (c *Client) FetchIndex(forceRefresh bool) (*Index, error) {
	localPath := c.localIndexPath()
	cachePath := c.Paths.RegistryCacheFile()

	if localPath != "" {
		if localInfo, err := os.Stat(localPath); err == nil {
			cacheInfo, cacheErr := os.Stat(cachePath)
			if forceRefresh || cacheErr != nil || localInfo.ModTime().After(cacheInfo.ModTime()) {
				if idx, err := readIndexFile(localPath); err == nil {
					return idx, nil
				}
			}
		}
	}

	if !forceRefresh {
		if idx, fresh := c.tryFreshCache(cachePath); fresh {
			return idx, nil
		}
	}

	idx, err := c.fetchRemote()
	if err != nil {
		logger.Warnf("registry fetch failed: %v", err)
		if idx, cerr := readIndexFile(cachePath); cerr == nil {
			return idx, nil
		}
		if localPath != "" {
			if idx, lerr := readIndexFile(localPath); lerr == nil {
				return idx, nil
			}
		}
		return nil, &errorkinds.RegistryUnavailableError{Cause: err}
	}

	if err := c.writeCache(cachePath, idx); err != nil {
		logger.Warnf("failed to write registry cache: %v", err)
	}
	return idx, nil
}

func (c *Client) localIndexPath() string {
	if c.LocalIndexDir == "" {
		return ""
	}
	return c.LocalIndexDir + "/index.json"
}

func (c *Client) tryFreshCache(cachePath string) (*Index, bool) {
	info, err := os.Stat(cachePath)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > cacheTTL {
		return nil, false
	}
	idx, err := readIndexFile(cachePath)
	if err != nil {
		return nil, false
	}
	return idx, true
}

func (c *Client) fetchRemote() (*Index, error) {
	req, err := http.NewRequest(http.MethodGet, c.IndexURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &errorkinds.DownloadFailedError{URL: c.IndexURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("decode registry index: %w", err)
	}
	return &idx, nil
}

func (c *Client) writeCache(path string, idx *Index) error {
	if err := os.MkdirAll(c.Paths.Cache, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readIndexFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}
