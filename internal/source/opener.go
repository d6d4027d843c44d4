// ABOUTME: Resolves load requests into sources
// ABOUTME: Opens media-directory WAV files or searches, downloads and decodes remote tracks
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/filterstream/pkg/audio/decode"
)

// OpenerConfig configures an Opener
type OpenerConfig struct {
	MediaDir    string
	ChunkFrames int

	// Searcher and Downloader enable remote sources when both are set
	Searcher   *Searcher
	Downloader *Downloader

	// AllowDirectURLs lets clients name an http(s) track URL instead of a
	// search query. Off, only URLs returned by the searcher are fetched.
	AllowDirectURLs bool
}

// Opener creates sources for a session
type Opener struct {
	mediaDir    string
	chunkFrames int
	searcher    *Searcher
	downloader  *Downloader
	allowURLs   bool
}

// NewOpener creates an opener
func NewOpener(cfg OpenerConfig) *Opener {
	mediaDir := cfg.MediaDir
	if mediaDir == "" {
		mediaDir = "."
	}
	return &Opener{
		mediaDir:    mediaDir,
		chunkFrames: cfg.ChunkFrames,
		searcher:    cfg.Searcher,
		downloader:  cfg.Downloader,
		allowURLs:   cfg.AllowDirectURLs,
	}
}

// Open resolves ref according to kind. All failures wrap ErrSourceOpen.
func (o *Opener) Open(ctx context.Context, kind Kind, ref string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceOpen, err)
	}

	switch kind {
	case KindFile:
		path, err := o.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceOpen, err)
		}
		return OpenFile(path)
	case KindRemote:
		src, err := o.openRemote(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceOpen, err)
		}
		return src, nil
	case KindTone:
		freq, err := ParseToneFrequency(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceOpen, err)
		}
		return NewToneSource(freq), nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", ErrSourceOpen, kind)
	}
}

// Resolve maps a client file name to a path inside the media directory.
// Absolute names and names escaping the directory are rejected.
func (o *Opener) Resolve(ref string) (string, error) {
	name := filepath.FromSlash(ref)
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("file name %q is outside the media directory", ref)
	}
	return filepath.Join(o.mediaDir, name), nil
}

// RemoteEnabled reports whether remote sources can be opened
func (o *Opener) RemoteEnabled() bool {
	return o.searcher != nil && o.downloader != nil
}

func (o *Opener) openRemote(ctx context.Context, query string) (Source, error) {
	if !o.RemoteEnabled() {
		return nil, fmt.Errorf("remote sources are not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty remote query")
	}

	title := query
	trackURL := query
	if isHTTPURL(query) && !o.allowURLs {
		return nil, ErrDirectURL
	}
	if !isHTTPURL(query) {
		result, err := o.searcher.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		trackURL = result.URL
		if result.Title != "" {
			title = result.Title
		}
	}

	path, err := o.downloader.Download(ctx, trackURL)
	if err != nil {
		return nil, err
	}

	track, err := decode.File(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "openRemote",
		"title":       title,
		"sample_rate": track.Format.SampleRate,
		"channels":    track.Format.Channels,
		"frames":      track.Frames(),
	}).Info("Loaded remote track")

	return NewRemoteSource(title, track.Format, track.PCM, o.chunkFrames), nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
