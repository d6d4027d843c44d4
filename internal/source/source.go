// ABOUTME: PCM source abstraction for streaming sessions
// ABOUTME: Defines the Source interface shared by WAV files, remote tracks and tones
package source

import (
	"errors"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
)

var (
	// ErrSourceOpen wraps every failure to open a source
	ErrSourceOpen = errors.New("source open failed")

	// ErrNotFound is returned when a remote search has no results
	ErrNotFound = errors.New("no search results")

	// ErrDirectURL is returned for a track URL when direct URLs are disabled
	ErrDirectURL = errors.New("direct track URLs are disabled")

	// ErrUnsupportedFormat is returned for containers or encodings we cannot read
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Source provides raw interleaved PCM frames
type Source interface {
	// Format returns channel count, sample width and sample rate
	Format() audio.Format

	// Frames returns the total number of frames in the stream
	Frames() int64

	// Position returns the number of frames already read
	Position() int64

	// ReadFrames returns up to n frames of interleaved PCM. It returns io.EOF
	// once the cursor has reached the end.
	ReadFrames(n int) ([]byte, error)

	// Title returns a display name for the source
	Title() string

	// Close releases the source
	Close() error
}

// Kind selects how a load reference is resolved
type Kind string

const (
	// KindFile opens a WAV file below the media directory
	KindFile Kind = "file"

	// KindRemote searches an index, downloads and decodes the best match
	KindRemote Kind = "remote"

	// KindTone generates a sine tone; the reference is its frequency in Hz
	KindTone Kind = "tone"
)

// ParseKind maps a load request's source field to a Kind.
// Unknown values are treated as a bare file name by the caller.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "file", "local":
		return KindFile, true
	case "remote", "youtube", "search":
		return KindRemote, true
	case "tone", "sine":
		return KindTone, true
	default:
		return "", false
	}
}
