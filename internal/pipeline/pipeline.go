// ABOUTME: Chunk processing pipeline for one loaded source
// ABOUTME: Splits frames into channels, filters them and re-frames with a WAV header
package pipeline

import (
	"fmt"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/kernel"
)

const (
	// DefaultIntensity leaves the low-pass wide open
	DefaultIntensity = 1

	// DefaultSpeed is normal playback, in percent
	DefaultSpeed = 100
)

// Settings are the live control values applied to every channel
type Settings struct {
	Intensity      int     // low-pass intensity, 1..99
	Speed          int     // playback speed in percent; 200 plays twice as fast
	TransitionBand float64 // kernel transition width as a fraction of the sample rate
}

// DefaultSettings returns pass-through settings
func DefaultSettings() Settings {
	return Settings{
		Intensity:      DefaultIntensity,
		Speed:          DefaultSpeed,
		TransitionBand: kernel.DefaultTransitionBand,
	}
}

// Ratio returns the speed as a sample step
func (s Settings) Ratio() float64 {
	return float64(s.Speed) / 100
}

// WithIntensity validates v and returns the settings with it applied
func (s Settings) WithIntensity(v int) (Settings, error) {
	if _, err := kernel.FromIntensity(v, s.TransitionBand); err != nil {
		return s, err
	}
	s.Intensity = v
	return s, nil
}

// WithSpeed validates v and returns the settings with it applied
func (s Settings) WithSpeed(v int) (Settings, error) {
	if v <= 0 {
		return s, fmt.Errorf("%w: speed %d must be positive", kernel.ErrInvalidControlValue, v)
	}
	s.Speed = v
	return s, nil
}

// Pipeline owns the channels built for one source
type Pipeline struct {
	format   audio.Format
	header   codec.Header
	chain    []Stage
	settings Settings
	channels []*Channel
}

// New builds a pipeline for a source of the given format and total frames
func New(format audio.Format, frames int64, chain []Stage, settings Settings) (*Pipeline, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	channels, err := NewChannels(format.Channels, chain, settings)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		format:   format,
		header:   codec.NewHeader(format, frames),
		chain:    chain,
		settings: settings,
		channels: channels,
	}, nil
}

// Process filters one chunk of interleaved frames and returns it framed
// with the stream header
func (p *Pipeline) Process(raw []byte) []byte {
	width := p.format.SampleWidth
	split := codec.Deinterleave(raw, p.format.Channels, width)

	filtered := make([][]byte, len(split))
	for i, chunk := range split {
		filtered[i] = Apply(p.channels[i], chunk, width)
	}

	return p.header.Frame(Combine(filtered, width))
}

// SetIntensity retunes the low-pass in every channel without clearing rollover
func (p *Pipeline) SetIntensity(v int) error {
	settings, err := p.settings.WithIntensity(v)
	if err != nil {
		return err
	}

	k, err := kernel.FromIntensity(v, settings.TransitionBand)
	if err != nil {
		return err
	}
	for _, ch := range p.channels {
		if ch.lowpass != nil {
			ch.lowpass.SetKernel(k)
		}
	}

	p.settings = settings
	return nil
}

// SetSpeed changes the speed ratio in every channel without clearing rollover
func (p *Pipeline) SetSpeed(v int) error {
	settings, err := p.settings.WithSpeed(v)
	if err != nil {
		return err
	}

	for _, ch := range p.channels {
		if ch.speed == nil {
			continue
		}
		if err := ch.speed.SetRatio(settings.Ratio()); err != nil {
			return err
		}
	}

	p.settings = settings
	return nil
}

// Reset clears rollover in every channel
func (p *Pipeline) Reset() {
	for _, ch := range p.channels {
		ch.Reset()
	}
}

func (p *Pipeline) Format() audio.Format { return p.format }
func (p *Pipeline) Header() codec.Header { return p.header }
func (p *Pipeline) Settings() Settings   { return p.settings }
func (p *Pipeline) Channels() []*Channel { return p.channels }
func (p *Pipeline) Chain() []Stage       { return p.chain }
