// Package netcache caches remote data documents on disk so repeated
// builds avoid re-downloading sources that have not changed.
package netcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Cache is a persistent HTTP cache with ETag/Last-Modified support.
type Cache struct {
	Dir    string
	Client *http.Client
}

// New returns a Cache rooted at dir with a default HTTP client.
func New(dir string) *Cache {
	return &Cache{
		Dir: dir,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	// DataFile is the basename of the cached payload file.
	DataFile string `json:"data_file"`
}

// Get fetches url and returns the payload bytes. When a cached copy
// exists, a conditional GET revalidates it; on 304 or network failure
// the cached copy is reused. Returns (body, fromCache, error).
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	key := hash(url)
	mpath := filepath.Join(c.Dir, key+".json")

	var m meta
	haveMeta := false
	if b, err := os.ReadFile(mpath); err == nil {
		_ = json.Unmarshal(b, &m)
		if m.URL == url && m.DataFile != "" {
			if _, err := os.Stat(filepath.Join(c.Dir, m.DataFile)); err == nil {
				haveMeta = true
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if haveMeta {
		if m.ETag != "" {
			req.Header.Set("If-None-Match", m.ETag)
		}
		if m.LastModified != "" {
			req.Header.Set("If-Modified-Since", m.LastModified)
		}
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		if haveMeta {
			slog.Warn("remote data fetch failed, using cached copy", "url", url, "err", err)
			return c.cached(m)
		}
		return nil, false, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && haveMeta:
		return c.cached(m)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("reading %s: %w", url, err)
		}
		nm := meta{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			DataFile:     key + ".data",
		}
		if err := c.store(mpath, nm, body); err != nil {
			return nil, false, err
		}
		return body, false, nil
	case haveMeta:
		slog.Warn("remote data fetch failed, using cached copy", "url", url, "status", resp.StatusCode)
		return c.cached(m)
	default:
		return nil, false, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
}

func (c *Cache) cached(m meta) ([]byte, bool, error) {
	b, err := os.ReadFile(filepath.Join(c.Dir, m.DataFile))
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// store writes the payload and its metadata atomically via rename.
func (c *Cache) store(mpath string, m meta, body []byte) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(c.Dir, m.DataFile), body, 0o644); err != nil {
		return err
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(mpath, mb, 0o644)
}

func writeFileAtomic(dst string, b []byte, mode os.FileMode) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, mode); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
