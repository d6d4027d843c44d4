// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM stream format and width-dependent sample ranges
package audio

import (
	"fmt"
	"time"
)

const (
	// 16-bit audio range constants
	Max16Bit = 32767
	Min16Bit = -32768

	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// MaxSampleWidth is the widest sample supported, in bytes
	MaxSampleWidth = 4
)

// Format describes a raw little-endian signed PCM stream
type Format struct {
	SampleRate  int
	Channels    int
	SampleWidth int // bytes per sample
}

// Validate checks that the format can be carried by the codec
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	if f.SampleWidth < 1 || f.SampleWidth > MaxSampleWidth {
		return fmt.Errorf("unsupported sample width: %d (supported: 1-%d)", f.SampleWidth, MaxSampleWidth)
	}
	return nil
}

// BitDepth returns bits per sample
func (f Format) BitDepth() int { return f.SampleWidth * 8 }

// BlockAlign returns bytes per frame (one sample for every channel)
func (f Format) BlockAlign() int { return f.SampleWidth * f.Channels }

// ByteRate returns bytes per second of audio
func (f Format) ByteRate() int { return f.SampleRate * f.BlockAlign() }

// Duration returns the playing time of the given number of frames
func (f Format) Duration(frames int64) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// MaxSample returns the largest value representable in width bytes
func MaxSample(width int) int {
	width = boundWidth(width)
	return 1<<(8*width-1) - 1
}

// MinSample returns the smallest value representable in width bytes
func MinSample(width int) int {
	width = boundWidth(width)
	return -(1 << (8*width - 1))
}

// boundWidth limits width to 1..MaxSampleWidth so range shifts stay in int
func boundWidth(width int) int {
	return max(1, min(width, MaxSampleWidth))
}

// Clamp saturates sample to the range of width bytes
func Clamp(sample, width int) int {
	if hi := MaxSample(width); sample > hi {
		return hi
	}
	if lo := MinSample(width); sample < lo {
		return lo
	}
	return sample
}

// SampleToInt16 rescales a sample of the given width into 16-bit range
func SampleToInt16(sample, width int) int16 {
	switch {
	case width > 2:
		return int16(Clamp(sample>>(8*(width-2)), 2))
	case width < 2:
		return int16(Clamp(sample<<(8*(2-width)), 2))
	default:
		return int16(Clamp(sample, 2))
	}
}
