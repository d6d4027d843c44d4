// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and width-dependent sample range helpers
// Package audio provides fundamental audio types shared by the filterstream packages.
//
// This package defines:
//   - Format: Describes a raw PCM stream (sample rate, channels, sample width)
//   - MaxSample/MinSample/Clamp: Saturation bounds for a sample width
//
// Subpackages build the streaming DSP engine on top of it:
//   - kernel: FIR coefficient synthesis
//   - codec: PCM byte/sample conversion, channel (de)interleaving, WAV headers
//   - filter: stateful chunk filters with overlap-add rollover
//   - output: local playback
//
// Example:
//
//	format := audio.Format{
//	    SampleRate:  44100,
//	    Channels:    2,
//	    SampleWidth: 2,
//	}
//
//	// Saturate an accumulator into 16-bit range
//	sample := audio.Clamp(acc, format.SampleWidth)
package audio
