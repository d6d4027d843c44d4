package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	k, err := Box(4)
	require.NoError(t, err)
	assert.Equal(t, Kernel{0.25, 0.25, 0.25, 0.25}, k)
	assert.Equal(t, 3, k.Latency())

	_, err = Box(0)
	assert.True(t, errors.Is(err, ErrInvalidControlValue))
}

func TestSincLengthIsOdd(t *testing.T) {
	tests := []struct {
		transitionBand float64
		length         int
	}{
		{0.05, 81},
		{0.1, 41},
		{0.08, 51},
		{0.5, 9},
	}

	for _, tt := range tests {
		k, err := Sinc(0.25, tt.transitionBand)
		require.NoError(t, err)
		assert.Len(t, k, tt.length, "transition band %g", tt.transitionBand)
	}
}

func TestSincNormalized(t *testing.T) {
	for _, cutoff := range []float64{0.01, 0.1, 0.2, 0.25, 0.3, 0.45, 0.49, 0.5} {
		k, err := Sinc(cutoff, DefaultTransitionBand)
		require.NoError(t, err)

		var sum float64
		for _, c := range k {
			sum += c
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "cutoff %g", cutoff)
	}
}

func TestSincSymmetric(t *testing.T) {
	k, err := Sinc(0.2, DefaultTransitionBand)
	require.NoError(t, err)

	for i := range k {
		assert.InDelta(t, k[i], k[len(k)-1-i], 1e-12)
	}
	// Blackman window endpoints are zero
	assert.InDelta(t, 0, k[0], 1e-12)
}

func TestSincHalfIsIdentity(t *testing.T) {
	k, err := Sinc(0.5, DefaultTransitionBand)
	require.NoError(t, err)

	center := len(k) / 2
	for i, c := range k {
		if i == center {
			assert.InDelta(t, 1.0, c, 1e-9)
		} else {
			assert.InDelta(t, 0.0, c, 1e-9)
		}
	}
}

func TestSincDeterministic(t *testing.T) {
	a, err := Sinc(0.3, 0.1)
	require.NoError(t, err)
	b, err := Sinc(0.3, 0.1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSincRejectsInvalid(t *testing.T) {
	for _, cutoff := range []float64{0, -0.1, 0.51, math.NaN()} {
		_, err := Sinc(cutoff, DefaultTransitionBand)
		assert.True(t, errors.Is(err, ErrInvalidControlValue), "cutoff %g", cutoff)
	}
	_, err := Sinc(0.25, 0)
	assert.True(t, errors.Is(err, ErrInvalidControlValue))
}

func TestCutoffFromIntensity(t *testing.T) {
	cutoff, err := CutoffFromIntensity(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cutoff, 1e-12)

	cutoff, err = CutoffFromIntensity(10)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cutoff, 1e-12)

	for _, v := range []int{0, -5, 100, 1000} {
		_, err := CutoffFromIntensity(v)
		assert.True(t, errors.Is(err, ErrInvalidControlValue), "intensity %d", v)
	}
}

func TestFromIntensity(t *testing.T) {
	k, err := FromIntensity(10, DefaultTransitionBand)
	require.NoError(t, err)
	want, err := Sinc(0.25, DefaultTransitionBand)
	require.NoError(t, err)
	assert.Equal(t, want, k)

	_, err = FromIntensity(0, DefaultTransitionBand)
	assert.Error(t, err)
}
