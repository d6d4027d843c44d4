// ABOUTME: WAV audio decoder
// ABOUTME: Reads a complete RIFF/WAVE PCM stream with go-audio/wav
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
	"github.com/go-audio/wav"
)

// WAV decodes signed PCM WAV data of 16 bits or more
func WAV(r io.ReadSeeker) (*Track, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode error: %w", err)
	}

	width := int(decoder.BitDepth) / 8
	if width < 2 {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupported, decoder.BitDepth)
	}

	return &Track{
		Format: audio.Format{
			SampleRate:  int(decoder.SampleRate),
			Channels:    int(decoder.NumChans),
			SampleWidth: width,
		},
		PCM: codec.SamplesToBytes(buf.Data, width),
	}, nil
}
