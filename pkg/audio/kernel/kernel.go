// ABOUTME: FIR kernel synthesis
// ABOUTME: Builds box and Blackman-windowed sinc low-pass coefficient vectors
package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// DefaultTransitionBand is the normalized transition width used by the live control path
const DefaultTransitionBand = 0.05

// ErrInvalidControlValue is returned for parameters outside a kernel's domain
var ErrInvalidControlValue = errors.New("invalid control value")

// Kernel is an immutable sequence of FIR coefficients.
// A kernel of length L leaves L-1 samples of rollover per chunk.
type Kernel []float64

// Latency returns the number of samples a chunk spills into the next one
func (k Kernel) Latency() int {
	if len(k) == 0 {
		return 0
	}
	return len(k) - 1
}

// Identity returns the single-tap pass-through kernel
func Identity() Kernel {
	return Kernel{1}
}

// Box returns a moving average of strength taps
func Box(strength int) (Kernel, error) {
	if strength <= 0 {
		return nil, fmt.Errorf("%w: box strength %d", ErrInvalidControlValue, strength)
	}

	k := make(Kernel, strength)
	for i := range k {
		k[i] = 1 / float64(strength)
	}
	return k, nil
}

// Sinc returns a Blackman-windowed sinc low-pass normalized to unity DC gain.
// cutoff is a fraction of the sample rate in (0, 0.5]; 0.5 degenerates to the
// identity impulse. The kernel length is ceil(4/transitionBand), forced odd.
func Sinc(cutoff, transitionBand float64) (Kernel, error) {
	if !(cutoff > 0 && cutoff <= 0.5) {
		return nil, fmt.Errorf("%w: cutoff %g outside (0, 0.5]", ErrInvalidControlValue, cutoff)
	}
	if !(transitionBand > 0 && transitionBand <= 1) {
		return nil, fmt.Errorf("%w: transition band %g outside (0, 1]", ErrInvalidControlValue, transitionBand)
	}

	n := int(math.Ceil(4 / transitionBand))
	if n%2 == 0 {
		n++
	}

	center := float64(n-1) / 2
	k := make(Kernel, n)
	for i := range k {
		k[i] = sinc(2 * cutoff * (float64(i) - center))
	}

	window.Blackman(k)
	floats.Scale(1/floats.Sum(k), k)

	return k, nil
}

// CutoffFromIntensity maps a positive control intensity to a sinc cutoff:
// 0.5 - log10(intensity)/4. Intensity 1 is the identity; the usable range is 1..99.
func CutoffFromIntensity(intensity int) (float64, error) {
	if intensity <= 0 {
		return 0, fmt.Errorf("%w: intensity %d must be positive", ErrInvalidControlValue, intensity)
	}

	cutoff := 0.5 - math.Log10(float64(intensity))/4
	if cutoff <= 0 {
		return 0, fmt.Errorf("%w: intensity %d leaves no passband", ErrInvalidControlValue, intensity)
	}
	return cutoff, nil
}

// FromIntensity synthesizes the low-pass kernel for a control intensity
func FromIntensity(intensity int, transitionBand float64) (Kernel, error) {
	cutoff, err := CutoffFromIntensity(intensity)
	if err != nil {
		return nil, err
	}
	return Sinc(cutoff, transitionBand)
}

// sinc is the normalized sinc function sin(pi x)/(pi x)
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
