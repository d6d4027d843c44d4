// ABOUTME: Whole-track decoder registry
// ABOUTME: Maps file extensions to decoders producing interleaved little-endian PCM
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
)

// ErrUnsupported is returned for extensions with no registered decoder
var ErrUnsupported = errors.New("unsupported audio format")

// Track is a fully decoded audio track
type Track struct {
	Format audio.Format
	PCM    []byte
}

// Frames returns the number of whole frames in PCM
func (t *Track) Frames() int64 {
	blockAlign := t.Format.BlockAlign()
	if blockAlign == 0 {
		return 0
	}
	return int64(len(t.PCM) / blockAlign)
}

// Decoder reads an entire encoded stream into a Track
type Decoder func(r io.ReadSeeker) (*Track, error)

var decoders = map[string]Decoder{
	".mp3":  MP3,
	".flac": FLAC,
	".ogg":  Vorbis,
	".oga":  Vorbis,
	".wav":  WAV,
}

// ForExtension returns the decoder registered for ext (case-insensitive, with dot)
func ForExtension(ext string) (Decoder, bool) {
	d, ok := decoders[strings.ToLower(ext)]
	return d, ok
}

// Extensions lists the supported file extensions
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	return exts
}

// File decodes the file at path, choosing a decoder by its extension
func File(path string) (*Track, error) {
	ext := filepath.Ext(path)
	decoder, ok := ForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	track, err := decoder(f)
	if err != nil {
		return nil, err
	}
	if err := track.Format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return track, nil
}
