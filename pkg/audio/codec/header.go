// ABOUTME: WAV container header synthesis
// ABOUTME: Rebuilds the canonical 44-byte RIFF/WAVE header that prefixes each chunk
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/go-audio/riff"
)

const (
	// HeaderSize is the length of a canonical PCM WAV header
	HeaderSize = 44

	fmtChunkSize = 16
	formatPCM    = 1
)

// ErrInvalidHeader is returned when a frame does not start with a PCM WAV header
var ErrInvalidHeader = errors.New("invalid WAV header")

// Header describes the logical stream a chunk belongs to.
// Sizes come from the source's total frame count, not the chunk being sent.
type Header struct {
	Format   audio.Format
	DataSize uint32
}

// NewHeader builds the header for a stream of frames frames in format f
func NewHeader(f audio.Format, frames int64) Header {
	size := frames * int64(f.BlockAlign())
	if size < 0 {
		size = 0
	}
	if size > int64(^uint32(0))-36 {
		size = int64(^uint32(0)) - 36
	}
	return Header{Format: f, DataSize: uint32(size)}
}

// Bytes serializes the header little-endian
func (h Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], riff.RiffID[:])
	binary.LittleEndian.PutUint32(buf[4:8], 36+h.DataSize)
	copy(buf[8:12], riff.WavFormatID[:])
	copy(buf[12:16], riff.FmtID[:])
	binary.LittleEndian.PutUint32(buf[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(h.Format.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.Format.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(h.Format.ByteRate()))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(h.Format.BlockAlign()))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(h.Format.BitDepth()))
	copy(buf[36:40], riff.DataFormatID[:])
	binary.LittleEndian.PutUint32(buf[40:44], h.DataSize)
	return buf
}

// Frame prefixes payload with the serialized header
func (h Header) Frame(payload []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, h.Bytes()...)
	return append(out, payload...)
}

// ParseHeader splits a framed chunk into its header and PCM payload
func ParseHeader(frame []byte) (Header, []byte, error) {
	if len(frame) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(frame))
	}
	if !bytes.Equal(frame[0:4], riff.RiffID[:]) || !bytes.Equal(frame[8:12], riff.WavFormatID[:]) {
		return Header{}, nil, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrInvalidHeader)
	}
	if !bytes.Equal(frame[12:16], riff.FmtID[:]) || !bytes.Equal(frame[36:40], riff.DataFormatID[:]) {
		return Header{}, nil, fmt.Errorf("%w: unexpected chunk layout", ErrInvalidHeader)
	}
	if code := binary.LittleEndian.Uint16(frame[20:22]); code != formatPCM {
		return Header{}, nil, fmt.Errorf("%w: format code %d is not PCM", ErrInvalidHeader, code)
	}

	h := Header{
		Format: audio.Format{
			Channels:    int(binary.LittleEndian.Uint16(frame[22:24])),
			SampleRate:  int(binary.LittleEndian.Uint32(frame[24:28])),
			SampleWidth: int(binary.LittleEndian.Uint16(frame[34:36])) / 8,
		},
		DataSize: binary.LittleEndian.Uint32(frame[40:44]),
	}
	if err := h.Format.Validate(); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	return h, frame[HeaderSize:], nil
}
