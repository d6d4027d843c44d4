// ABOUTME: Per-channel filter chains
// ABOUTME: Builds independent low-pass and speed stages for every audio channel
package pipeline

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/filter"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/kernel"
)

// Stage names one filter in a channel's chain
type Stage string

const (
	StageLowpass Stage = "lowpass"
	StageSpeed   Stage = "speed"
)

// DefaultChain runs the low-pass before the speed change
var DefaultChain = []Stage{StageLowpass, StageSpeed}

// ParseChain converts stage names into a chain. Duplicate stages are rejected
// since control updates address each stage once.
func ParseChain(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("empty filter chain")
	}

	seen := make(map[Stage]bool, len(names))
	chain := make([]Stage, 0, len(names))
	for _, name := range names {
		stage := Stage(strings.ToLower(strings.TrimSpace(name)))
		switch stage {
		case StageLowpass, StageSpeed:
		default:
			return nil, fmt.Errorf("unknown filter stage %q", name)
		}
		if seen[stage] {
			return nil, fmt.Errorf("duplicate filter stage %q", name)
		}
		seen[stage] = true
		chain = append(chain, stage)
	}
	return chain, nil
}

// Channel is the ordered filter chain of one audio channel.
// Channels never share filter state.
type Channel struct {
	Filters []filter.Filter

	lowpass *filter.Convolution
	speed   *filter.PlaybackSpeed
}

// NewChannels builds n independent channels running chain, tuned to settings
func NewChannels(n int, chain []Stage, settings Settings) ([]*Channel, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", n)
	}

	lowpassKernel, err := kernel.FromIntensity(settings.Intensity, settings.TransitionBand)
	if err != nil {
		return nil, err
	}

	channels := make([]*Channel, n)
	for i := range channels {
		ch := &Channel{}
		for _, stage := range chain {
			switch stage {
			case StageLowpass:
				ch.lowpass = filter.NewConvolution(lowpassKernel)
				ch.Filters = append(ch.Filters, ch.lowpass)
			case StageSpeed:
				speed, err := filter.NewPlaybackSpeed(settings.Ratio(), settings.TransitionBand)
				if err != nil {
					return nil, err
				}
				ch.speed = speed
				ch.Filters = append(ch.Filters, speed)
			default:
				return nil, fmt.Errorf("unknown filter stage %q", stage)
			}
		}
		channels[i] = ch
	}
	return channels, nil
}

// Lowpass returns the channel's low-pass stage, or nil if the chain has none
func (c *Channel) Lowpass() *filter.Convolution { return c.lowpass }

// Speed returns the channel's speed stage, or nil if the chain has none
func (c *Channel) Speed() *filter.PlaybackSpeed { return c.speed }

// Reset clears rollover in every stage
func (c *Channel) Reset() {
	for _, f := range c.Filters {
		f.Reset()
	}
}

// Apply decodes one channel's bytes, runs every filter in order and
// re-encodes the result with saturation
func Apply(ch *Channel, chunk []byte, width int) []byte {
	samples := codec.BytesToSamples(chunk, width)
	for _, f := range ch.Filters {
		samples = filter.Run(f, samples)
	}
	return codec.SamplesToBytes(samples, width)
}

// Combine interleaves per-channel byte runs into frames
func Combine(channels [][]byte, width int) []byte {
	return codec.Interleave(channels, width)
}
