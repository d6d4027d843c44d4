// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio to 16-bit stereo PCM with go-mp3
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes an MP3 stream. go-mp3 always yields 16-bit stereo.
func MP3(r io.ReadSeeker) (*Track, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	return &Track{
		Format: audio.Format{
			SampleRate:  decoder.SampleRate(),
			Channels:    2,
			SampleWidth: 2,
		},
		PCM: pcm,
	}, nil
}
