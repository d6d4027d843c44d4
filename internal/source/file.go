// ABOUTME: Local WAV file source
// ABOUTME: Reads raw PCM frames from a RIFF/WAVE container with go-audio/wav
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

const wavFormatPCM = 1

// FileSource streams frames from a WAV file with a forward-only cursor
type FileSource struct {
	file     *os.File
	decoder  *wav.Decoder
	format   audio.Format
	frames   int64
	position int64
	title    string
}

// OpenFile opens a PCM WAV file and positions the cursor at the first frame
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open WAV file: %v", ErrSourceOpen, err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: invalid WAV file: %s", ErrSourceOpen, path)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to locate PCM data: %v", ErrSourceOpen, err)
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		f.Close()
		return nil, fmt.Errorf("%w: %w: WAV format code %d", ErrSourceOpen, ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	format := audio.Format{
		SampleRate:  int(decoder.SampleRate),
		Channels:    int(decoder.NumChans),
		SampleWidth: int(decoder.BitDepth) / 8,
	}
	if err := validateWAVFormat(format); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrSourceOpen, err)
	}

	filename := filepath.Base(path)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	frames := decoder.PCMLen() / int64(format.BlockAlign())

	logrus.WithFields(logrus.Fields{
		"function":     "OpenFile",
		"title":        title,
		"sample_rate":  format.SampleRate,
		"channels":     format.Channels,
		"sample_width": format.SampleWidth,
		"frames":       frames,
	}).Info("Loaded WAV file")

	return &FileSource{
		file:    f,
		decoder: decoder,
		format:  format,
		frames:  frames,
		title:   title,
	}, nil
}

// validateWAVFormat rejects formats the signed PCM codec cannot carry.
// 8-bit WAV data is unsigned.
func validateWAVFormat(f audio.Format) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if f.SampleWidth < 2 {
		return fmt.Errorf("%w: 8-bit WAV is unsigned", ErrUnsupportedFormat)
	}
	return nil
}

func (s *FileSource) ReadFrames(n int) ([]byte, error) {
	remaining := s.frames - s.position
	if remaining <= 0 {
		return nil, io.EOF
	}
	if int64(n) > remaining {
		n = int(remaining)
	}
	if n <= 0 {
		return nil, nil
	}

	blockAlign := s.format.BlockAlign()
	buf := make([]byte, n*blockAlign)
	read, err := io.ReadFull(s.decoder.PCMChunk, buf)

	frames := read / blockAlign
	s.position += int64(frames)

	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("failed to read PCM data: %w", err)
		}
		// The header promised more data than the file holds
		s.frames = s.position
		if frames == 0 {
			return nil, io.EOF
		}
	}

	return buf[:frames*blockAlign], nil
}

func (s *FileSource) Format() audio.Format { return s.format }
func (s *FileSource) Frames() int64        { return s.frames }
func (s *FileSource) Position() int64      { return s.position }
func (s *FileSource) Title() string        { return s.title }
func (s *FileSource) Close() error {
	return s.file.Close()
}
