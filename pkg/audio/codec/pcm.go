// ABOUTME: Raw PCM sample codec
// ABOUTME: Converts little-endian signed byte runs to ints and back, per channel
package codec

import (
	"github.com/Resonate-Protocol/filterstream/pkg/audio"
)

// validWidth reports whether width is a sample width the codec handles
func validWidth(width int) bool {
	return width > 0 && width <= audio.MaxSampleWidth
}

// BytesToSamples groups buf into width-byte little-endian signed integers.
// A trailing partial group is dropped. Unsupported widths yield nil.
func BytesToSamples(buf []byte, width int) []int {
	if !validWidth(width) {
		return nil
	}

	numSamples := len(buf) / width
	samples := make([]int, numSamples)
	shift := 64 - 8*width
	for i := 0; i < numSamples; i++ {
		var v uint64
		for b := width - 1; b >= 0; b-- {
			v = v<<8 | uint64(buf[i*width+b])
		}
		// Sign extend from the top bit of the sample
		samples[i] = int(int64(v<<shift) >> shift)
	}
	return samples
}

// SamplesToBytes encodes samples as width-byte little-endian signed integers.
// Values outside the width's range are saturated, never wrapped.
// Unsupported widths yield nil.
func SamplesToBytes(samples []int, width int) []byte {
	if !validWidth(width) {
		return nil
	}

	output := make([]byte, len(samples)*width)
	for i, sample := range samples {
		v := uint64(audio.Clamp(sample, width))
		for b := 0; b < width; b++ {
			output[i*width+b] = byte(v >> (8 * b))
		}
	}
	return output
}

// Deinterleave splits frame-interleaved PCM into one byte run per channel.
// Bytes beyond the last whole frame are dropped.
func Deinterleave(raw []byte, channels, width int) [][]byte {
	if channels <= 0 || !validWidth(width) {
		return nil
	}

	frameSize := channels * width
	frames := len(raw) / frameSize
	out := make([][]byte, channels)
	for ch := range out {
		out[ch] = make([]byte, 0, frames*width)
	}

	for f := 0; f < frames; f++ {
		base := f * frameSize
		for ch := 0; ch < channels; ch++ {
			idx := base + ch*width
			out[ch] = append(out[ch], raw[idx:idx+width]...)
		}
	}
	return out
}

// Interleave is the inverse of Deinterleave. The shortest channel sets the
// number of frames written.
func Interleave(channels [][]byte, width int) []byte {
	if len(channels) == 0 || !validWidth(width) {
		return nil
	}

	frames := len(channels[0]) / width
	for _, ch := range channels[1:] {
		if n := len(ch) / width; n < frames {
			frames = n
		}
	}

	output := make([]byte, 0, frames*width*len(channels))
	for f := 0; f < frames; f++ {
		for _, ch := range channels {
			output = append(output, ch[f*width:(f+1)*width]...)
		}
	}
	return output
}
