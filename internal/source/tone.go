// ABOUTME: Generated sine tone source
// ABOUTME: Synthesizes a fixed-length 16-bit stereo tone for checking filters by ear
package source

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
)

const (
	// DefaultToneFrequency is used when a tone request names no frequency
	DefaultToneFrequency = 440.0

	// ToneSeconds is the length of every generated tone
	ToneSeconds = 10

	toneAmplitude = 0.5
)

// ToneFormat is the format tones are generated in
var ToneFormat = audio.Format{SampleRate: 44100, Channels: 2, SampleWidth: 2}

// ToneSource generates a sine wave on demand
type ToneSource struct {
	frequency float64
	frames    int64
	position  int64
}

// NewToneSource creates a tone of frequency Hz lasting ToneSeconds
func NewToneSource(frequency float64) *ToneSource {
	return &ToneSource{
		frequency: frequency,
		frames:    int64(ToneSeconds * ToneFormat.SampleRate),
	}
}

// ParseToneFrequency reads a frequency in Hz from a load reference.
// An empty reference selects DefaultToneFrequency.
func ParseToneFrequency(ref string) (float64, error) {
	ref = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(ref)), "hz")
	if ref == "" {
		return DefaultToneFrequency, nil
	}

	freq, err := strconv.ParseFloat(ref, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tone frequency %q: %w", ref, err)
	}
	if !(freq > 0 && freq < float64(ToneFormat.SampleRate)/2) {
		return 0, fmt.Errorf("tone frequency %g Hz outside (0, %d)", freq, ToneFormat.SampleRate/2)
	}
	return freq, nil
}

func (s *ToneSource) ReadFrames(n int) ([]byte, error) {
	remaining := s.frames - s.position
	if remaining <= 0 {
		return nil, io.EOF
	}
	n = int(min(int64(n), remaining))

	channels := ToneFormat.Channels
	samples := make([]int, n*channels)
	for i := 0; i < n; i++ {
		t := float64(s.position+int64(i)) / float64(ToneFormat.SampleRate)
		value := int(math.Sin(2*math.Pi*s.frequency*t) * audio.Max16Bit * toneAmplitude)
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = value
		}
	}
	s.position += int64(n)

	return codec.SamplesToBytes(samples, ToneFormat.SampleWidth), nil
}

func (s *ToneSource) Format() audio.Format { return ToneFormat }
func (s *ToneSource) Frames() int64        { return s.frames }
func (s *ToneSource) Position() int64      { return s.position }
func (s *ToneSource) Title() string        { return fmt.Sprintf("%g Hz tone", s.frequency) }
func (s *ToneSource) Close() error         { return nil }
