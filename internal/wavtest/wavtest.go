// Package wavtest writes WAV fixtures for tests.
package wavtest

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
)

// Write encodes interleaved samples into a PCM WAV file at dir/name
func Write(t testing.TB, dir, name string, format audio.Format, samples []int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, format.SampleRate, format.BitDepth(), format.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: format.BitDepth(),
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

// Ramp returns frames*channels interleaved samples where channel c of frame i
// holds (i+1)*(c+1), wrapped to stay within 16 bits
func Ramp(frames, channels int) []int {
	samples := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			samples = append(samples, ((i+1)*(c+1))%30000)
		}
	}
	return samples
}
