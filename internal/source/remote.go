// ABOUTME: Buffered remote track source
// ABOUTME: Serves a fully decoded track as a FIFO of pre-cut chunks
package source

import (
	"io"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
)

// RemoteSource holds a decoded track split into chunks at load time.
// ReadFrames pops the next chunk; chunks are cut to the session's chunk size.
type RemoteSource struct {
	format   audio.Format
	chunks   [][]byte
	frames   int64
	position int64
	title    string
}

// NewRemoteSource cuts interleaved pcm into chunks of chunkFrames frames.
// Trailing bytes that do not form a whole frame are dropped.
func NewRemoteSource(title string, format audio.Format, pcm []byte, chunkFrames int) *RemoteSource {
	blockAlign := format.BlockAlign()
	frames := int64(len(pcm) / blockAlign)
	if chunkFrames <= 0 {
		chunkFrames = int(frames)
	}

	step := chunkFrames * blockAlign
	usable := int(frames) * blockAlign
	var chunks [][]byte
	for start := 0; start < usable; start += step {
		end := min(start+step, usable)
		chunks = append(chunks, pcm[start:end])
	}

	return &RemoteSource{
		format: format,
		chunks: chunks,
		frames: frames,
		title:  title,
	}
}

// ReadFrames returns the next buffered chunk; n is fixed at construction
func (s *RemoteSource) ReadFrames(n int) ([]byte, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}

	chunk := s.chunks[0]
	s.chunks[0] = nil
	s.chunks = s.chunks[1:]
	s.position += int64(len(chunk) / s.format.BlockAlign())
	return chunk, nil
}

// Pending returns the number of chunks not yet read
func (s *RemoteSource) Pending() int { return len(s.chunks) }

func (s *RemoteSource) Format() audio.Format { return s.format }
func (s *RemoteSource) Frames() int64        { return s.frames }
func (s *RemoteSource) Position() int64      { return s.position }
func (s *RemoteSource) Title() string        { return s.title }
func (s *RemoteSource) Close() error {
	s.chunks = nil
	return nil
}
