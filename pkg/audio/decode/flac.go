// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frames with mewkiz/flac and interleaves subframes
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
	"github.com/mewkiz/flac"
)

// FLAC decodes a FLAC stream. Bit depths are rounded up to whole bytes.
func FLAC(r io.ReadSeeker) (*Track, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	width := (bitDepth + 7) / 8
	// Samples narrower than the container width are shifted up to fill it
	shift := width*8 - bitDepth

	var samples []int
	if info.NSamples > 0 {
		samples = make([]int, 0, int(info.NSamples)*channels)
	}

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, int(frame.Subframes[ch].Samples[i])<<shift)
			}
		}
	}

	return &Track{
		Format: audio.Format{
			SampleRate:  int(info.SampleRate),
			Channels:    channels,
			SampleWidth: width,
		},
		PCM: codec.SamplesToBytes(samples, width),
	}, nil
}
