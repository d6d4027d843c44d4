package decode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/filterstream/internal/wavtest"
	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
)

func TestFileWAV(t *testing.T) {
	format := audio.Format{SampleRate: 8000, Channels: 2, SampleWidth: 2}
	samples := wavtest.Ramp(100, 2)
	path := wavtest.Write(t, t.TempDir(), "ramp.wav", format, samples)

	track, err := File(path)
	require.NoError(t, err)

	assert.Equal(t, format, track.Format)
	assert.Equal(t, int64(100), track.Frames())
	assert.Equal(t, samples, codec.BytesToSamples(track.PCM, 2))
}

func TestFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := File(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestForExtension(t *testing.T) {
	for _, ext := range []string{".mp3", ".MP3", ".flac", ".ogg", ".oga", ".wav"} {
		_, ok := ForExtension(ext)
		assert.True(t, ok, ext)
	}

	_, ok := ForExtension(".opus")
	assert.False(t, ok)
	assert.Len(t, Extensions(), 5)
}

func TestDecodersRejectGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x42}, 256)

	tests := []struct {
		name    string
		decoder Decoder
	}{
		{"wav", WAV},
		{"flac", FLAC},
		{"vorbis", Vorbis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.decoder(bytes.NewReader(garbage))
			assert.Error(t, err)
		})
	}
}

func TestFloatToInt16(t *testing.T) {
	got := FloatToInt16([]float32{0, 1, -1, 0.5, 2})
	assert.Equal(t, []int{0, 32767, -32767, 16384, 65534}, got)
}

func TestTrackFramesEmptyFormat(t *testing.T) {
	track := &Track{PCM: []byte{1, 2, 3}}
	assert.Zero(t, track.Frames())
}
