// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import "github.com/Resonate-Protocol/filterstream/pkg/audio"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device for format
	Open(format audio.Format) error

	// Write plays interleaved little-endian PCM in the opened format.
	// It blocks until the data is queued.
	Write(pcm []byte) error

	// Close releases output resources
	Close() error
}
