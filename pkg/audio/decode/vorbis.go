// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Vorbis float samples to 16-bit PCM with jfreymuth/oggvorbis
package decode

import (
	"fmt"
	"io"
	"math"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
	"github.com/jfreymuth/oggvorbis"
)

// Vorbis decodes an Ogg Vorbis stream to 16-bit PCM
func Vorbis(r io.ReadSeeker) (*Track, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis decode error: %w", err)
	}

	return &Track{
		Format: audio.Format{
			SampleRate:  format.SampleRate,
			Channels:    format.Channels,
			SampleWidth: 2,
		},
		PCM: codec.SamplesToBytes(FloatToInt16(data), 2),
	}, nil
}

// FloatToInt16 scales [-1, 1] float samples to the 16-bit range
func FloatToInt16(data []float32) []int {
	samples := make([]int, len(data))
	for i, v := range data {
		samples[i] = int(math.Round(float64(v) * audio.Max16Bit))
	}
	return samples
}
