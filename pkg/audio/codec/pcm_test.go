// ABOUTME: Tests for the PCM sample codec
// ABOUTME: Covers width handling, saturation, and channel striding
package codec

import (
	"math/rand"
	"testing"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToSamples16Bit(t *testing.T) {
	// 0x0100 = 256, 0xFFFF = -1, 0x8000 = -32768
	input := []byte{0x00, 0x01, 0xFF, 0xFF, 0x00, 0x80}
	assert.Equal(t, []int{256, -1, -32768}, BytesToSamples(input, 2))
}

func TestBytesToSamples24Bit(t *testing.T) {
	input := []byte{0x56, 0x34, 0x12, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}
	assert.Equal(t, []int{0x123456, -256, audio.Max24Bit}, BytesToSamples(input, 3))
}

func TestBytesToSamplesDropsPartialGroup(t *testing.T) {
	input := []byte{0x01, 0x00, 0x02, 0x00, 0x03}
	assert.Equal(t, []int{1, 2}, BytesToSamples(input, 2))
	assert.Empty(t, BytesToSamples([]byte{0x01}, 2))
	assert.Empty(t, BytesToSamples(nil, 2))
}

func TestSamplesToBytesSaturates(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		input    []int
		expected []int
	}{
		{"16-bit upper bound", 2, []int{32767, 32768, 1 << 20}, []int{32767, 32767, 32767}},
		{"16-bit lower bound", 2, []int{-32768, -32769, -1 << 20}, []int{-32768, -32768, -32768}},
		{"8-bit", 1, []int{128, -129, 5}, []int{127, -128, 5}},
		{"24-bit", 3, []int{audio.Max24Bit + 1, audio.Min24Bit - 1}, []int{audio.Max24Bit, audio.Min24Bit}},
		{"32-bit", 4, []int{1 << 31, -(1 << 31) - 1}, []int{1<<31 - 1, -(1 << 31)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := SamplesToBytes(tt.input, tt.width)
			require.Len(t, encoded, len(tt.input)*tt.width)
			assert.Equal(t, tt.expected, BytesToSamples(encoded, tt.width))
		})
	}
}

func TestSampleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for width := 1; width <= audio.MaxSampleWidth; width++ {
		lo, hi := audio.MinSample(width), audio.MaxSample(width)
		samples := []int{lo, hi, 0, -1, 1}
		for i := 0; i < 200; i++ {
			samples = append(samples, lo+rng.Intn(hi-lo+1))
		}

		got := BytesToSamples(SamplesToBytes(samples, width), width)
		assert.Equal(t, samples, got, "width %d", width)
	}
}

func TestDeinterleave(t *testing.T) {
	// Two 16-bit channels: L0 R0 L1 R1
	raw := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00}
	channels := Deinterleave(raw, 2, 2)

	require.Len(t, channels, 2)
	assert.Equal(t, []int{1, 3}, BytesToSamples(channels[0], 2))
	assert.Equal(t, []int{2, 4}, BytesToSamples(channels[1], 2))
}

func TestInterleaveUsesShortestChannel(t *testing.T) {
	left := SamplesToBytes([]int{1, 3, 5}, 2)
	right := SamplesToBytes([]int{2, 4}, 2)

	assert.Equal(t, []int{1, 2, 3, 4}, BytesToSamples(Interleave([][]byte{left, right}, 2), 2))
	assert.Nil(t, Interleave(nil, 2))
}

func TestDeinterleaveInterleaveInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for channels := 1; channels <= 6; channels++ {
		for width := 1; width <= audio.MaxSampleWidth; width++ {
			raw := make([]byte, 37*channels*width)
			rng.Read(raw)

			got := Interleave(Deinterleave(raw, channels, width), width)
			assert.Equal(t, raw, got, "channels=%d width=%d", channels, width)
		}
	}
}

func TestUnsupportedWidths(t *testing.T) {
	buf := make([]byte, 32)
	for _, width := range []int{0, -1, audio.MaxSampleWidth + 1, 9, 16} {
		assert.Nil(t, BytesToSamples(buf, width), "width %d", width)
		assert.Nil(t, SamplesToBytes([]int{1, 2}, width), "width %d", width)
		assert.Nil(t, Deinterleave(buf, 2, width), "width %d", width)
		assert.Nil(t, Interleave([][]byte{buf, buf}, width), "width %d", width)
	}
}
