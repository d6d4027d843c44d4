// ABOUTME: Sample codec package
// ABOUTME: PCM byte/sample conversion, channel striding, and WAV framing
// Package codec converts between raw PCM bytes and integer samples.
//
// Samples are little-endian signed integers of 1 to 4 bytes. Encoding
// saturates out-of-range values to the nearest bound. Deinterleave and
// Interleave move between frame-interleaved multi-channel PCM and one byte
// run per channel.
//
// Each streamed chunk is framed with a canonical WAV header describing the
// whole logical stream:
//
//	h := codec.NewHeader(format, totalFrames)
//	frame := h.Frame(pcm)
//	hdr, payload, err := codec.ParseHeader(frame)
package codec
