// ABOUTME: Track downloader with an on-disk cache
// ABOUTME: Fetches remote audio files into a directory keyed by URL hash
package source

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DefaultMaxDownloadBytes caps a single track download
const DefaultMaxDownloadBytes = 256 << 20

// ErrTooLarge is returned when a track exceeds the download limit
var ErrTooLarge = errors.New("track exceeds download limit")

// Downloader manages track downloads
type Downloader struct {
	cacheDir string
	client   *http.Client
	maxBytes int64
}

// NewDownloader creates a downloader caching into dir. An empty dir uses a
// folder under the system temp directory; maxBytes <= 0 selects
// DefaultMaxDownloadBytes.
func NewDownloader(dir string, client *http.Client, maxBytes int64) (*Downloader, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "filterstream-cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownloadBytes
	}

	return &Downloader{
		cacheDir: dir,
		client:   client,
		maxBytes: maxBytes,
	}, nil
}

// Download fetches rawURL into the cache and returns the local path
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("empty download URL")
	}

	cachePath := d.CachePath(rawURL)
	logger := logrus.WithFields(logrus.Fields{
		"function": "Download",
		"url":      rawURL,
		"path":     cachePath,
	})

	if _, err := os.Stat(cachePath); err == nil {
		logger.Debug("Track cache hit")
		return cachePath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	logger.Info("Downloading track")
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("track download failed: HTTP %d", resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return "", fmt.Errorf("%w: %d bytes announced, limit %d", ErrTooLarge, resp.ContentLength, d.maxBytes)
	}

	// Write beside the final path so a cancelled download never looks cached
	tmp, err := os.CreateTemp(d.cacheDir, "partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	// One byte past the limit tells a full-size track from an oversized one
	n, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to save track: %w", err)
	}
	if n > d.maxBytes {
		tmp.Close()
		return "", fmt.Errorf("%w: limit %d bytes", ErrTooLarge, d.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to save track: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return "", fmt.Errorf("failed to move track into cache: %w", err)
	}

	logger.Info("Track saved")
	return cachePath, nil
}

// CachePath returns where rawURL is stored in the cache
func (d *Downloader) CachePath(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return filepath.Join(d.cacheDir, fmt.Sprintf("%x%s", hash[:8], extension(rawURL)))
}

// MaxBytes returns the per-track download limit
func (d *Downloader) MaxBytes() int64 { return d.maxBytes }

// Dir returns the cache directory
func (d *Downloader) Dir() string { return d.cacheDir }

// Cleanup removes the cache directory
func (d *Downloader) Cleanup() error {
	return os.RemoveAll(d.cacheDir)
}

// extension extracts the file extension from a URL path
func extension(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}

	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".mp3"
	}
	return ext
}
