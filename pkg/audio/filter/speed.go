// ABOUTME: Playback speed filter
// ABOUTME: Zero-order hold resampling followed by an FIR anti-alias low-pass
package filter

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/filterstream/pkg/audio/kernel"
)

// PlaybackSpeed changes playback rate by repeating or skipping samples and
// smoothing the resulting staircase. A ratio above 1 speeds playback up.
// This is a sample-hold resampler, not an interpolator.
type PlaybackSpeed struct {
	ratio          float64
	position       float64 // read position of the next output, relative to the next chunk
	transitionBand float64
	inner          *Convolution
}

// NewPlaybackSpeed creates a speed filter. transitionBand shapes the
// anti-alias kernel used whenever ratio != 1.
func NewPlaybackSpeed(ratio, transitionBand float64) (*PlaybackSpeed, error) {
	p := &PlaybackSpeed{
		transitionBand: transitionBand,
		inner:          NewConvolution(kernel.Identity()),
	}
	if err := p.SetRatio(ratio); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PlaybackSpeed) isFilter() {}

// Execute resamples one chunk. The output length is about len(chunk)/ratio;
// the fractional read position carries into the next chunk.
func (p *PlaybackSpeed) Execute(chunk []int) []int {
	n := float64(len(chunk))
	held := make([]int, 0, int(n/p.ratio)+1)
	for p.position < n {
		held = append(held, chunk[int(p.position)])
		p.position += p.ratio
	}
	p.position -= n

	return p.inner.Execute(held)
}

// SetRatio updates the ratio in place and retunes the anti-alias kernel.
// Rollover in the anti-alias stage is kept.
func (p *PlaybackSpeed) SetRatio(ratio float64) error {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return fmt.Errorf("%w: speed ratio %g", kernel.ErrInvalidControlValue, ratio)
	}

	k, err := antiAliasKernel(ratio, p.transitionBand)
	if err != nil {
		return err
	}

	p.ratio = ratio
	p.inner.SetKernel(k)
	return nil
}

// Ratio returns the current speed multiplier
func (p *PlaybackSpeed) Ratio() float64 { return p.ratio }

// AntiAlias exposes the inner low-pass
func (p *PlaybackSpeed) AntiAlias() *Convolution { return p.inner }

// Reset clears the read position and the anti-alias rollover
func (p *PlaybackSpeed) Reset() {
	p.position = 0
	p.inner.Reset()
}

// antiAliasKernel picks a low-pass at the narrower of the two Nyquist limits
func antiAliasKernel(ratio, transitionBand float64) (kernel.Kernel, error) {
	if ratio == 1 {
		return kernel.Identity(), nil
	}
	return kernel.Sinc(0.5*math.Min(ratio, 1/ratio), transitionBand)
}
