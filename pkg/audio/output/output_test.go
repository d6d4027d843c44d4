// ABOUTME: Audio output tests
// ABOUTME: Verifies sample conversion and volume handling without a device
package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestTo16Bit(t *testing.T) {
	tests := []struct {
		name    string
		samples []int
		width   int
		volume  int
		muted   bool
		want    []int
	}{
		{"16-bit passthrough", []int{1000, -1000, 32767}, 2, 100, false, []int{1000, -1000, 32767}},
		{"24-bit shifted down", []int{256000, -8388608}, 3, 100, false, []int{1000, -32768}},
		{"half volume", []int{1000, -1000}, 2, 50, false, []int{500, -500}},
		{"muted", []int{1000, -1000}, 2, 100, true, []int{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := To16Bit(codec.SamplesToBytes(tt.samples, tt.width), tt.width, tt.volume, tt.muted)
			assert.Equal(t, tt.want, codec.BytesToSamples(out, 2))
		})
	}
}

func TestVolumeClamped(t *testing.T) {
	o := NewOto()
	o.SetVolume(150)
	assert.Equal(t, 100, o.Volume())
	o.SetVolume(-5)
	assert.Equal(t, 0, o.Volume())

	o.SetMuted(true)
	assert.True(t, o.IsMuted())
}

func TestWriteBeforeOpen(t *testing.T) {
	assert.Error(t, NewOto().Write([]byte{0, 0}))
}
