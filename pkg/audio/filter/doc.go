// ABOUTME: Streaming filter engine package
// ABOUTME: Stateful per-channel filters with cross-chunk continuity
// Package filter implements the streaming filters applied to each audio channel.
//
// Filters consume one chunk of integer samples and return one chunk of
// output, carrying state between calls so consecutive chunks join without
// discontinuities:
//   - Convolution: FIR filtering with overlap-add rollover
//   - PlaybackSpeed: sample-hold resampling followed by an anti-alias FIR
//
// Example:
//
//	lp := filter.NewConvolution(k)
//	for chunk := range chunks {
//	    out := filter.Run(lp, chunk)
//	}
package filter
