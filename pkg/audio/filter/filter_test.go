package filter

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Resonate-Protocol/filterstream/pkg/audio/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomChunk(rng *rand.Rand, n int) []int {
	chunk := make([]int, n)
	for i := range chunk {
		chunk[i] = rng.Intn(65536) - 32768
	}
	return chunk
}

func TestOverlapAdd(t *testing.T) {
	out, tail := OverlapAdd([]float64{1.5, 2.5, -3.7, 4}, []float64{1, 1}, 2)
	assert.Equal(t, []int{2, 3}, out)
	assert.Equal(t, []float64{-3.7, 4}, tail)

	// Truncation is toward zero
	out, tail = OverlapAdd([]float64{-1.9, 1.9}, nil, 2)
	assert.Equal(t, []int{-1, 1}, out)
	assert.Empty(t, tail)
}

func TestConvolutionTruncatesLate(t *testing.T) {
	c := NewConvolution(kernel.Kernel{0.5, 0.5})

	// Full result [0.5, 1.0, 0.5]: 0.5 stays in the tail instead of rounding away
	assert.Equal(t, []int{0, 1}, c.Execute([]int{1, 1}))
	assert.Equal(t, []float64{0.5}, c.Tail())

	assert.Equal(t, []int{1}, c.Execute([]int{1}))
}

func TestConvolutionContinuity(t *testing.T) {
	kernels := map[string]kernel.Kernel{
		"weighted": {0.5, 0.25, 0.25},
		"box":      mustBox(t, 4),
		"identity": kernel.Identity(),
	}
	rng := rand.New(rand.NewSource(42))

	for name, k := range kernels {
		t.Run(name, func(t *testing.T) {
			c1 := randomChunk(rng, 64)
			c2 := randomChunk(rng, 37)

			stateful := NewConvolution(k)
			got := append(stateful.Execute(c1), stateful.Execute(c2)...)

			fresh := NewConvolution(k)
			want := fresh.Execute(append(append([]int(nil), c1...), c2...))

			assert.Equal(t, want, got)
		})
	}
}

func TestConvolutionContinuityManyChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	k := kernel.Kernel{0.125, 0.375, 0.375, 0.125}
	signal := randomChunk(rng, 1000)

	stateful := NewConvolution(k)
	var got []int
	for start := 0; start < len(signal); {
		n := 1 + rng.Intn(50)
		end := min(start+n, len(signal))
		got = append(got, stateful.Execute(signal[start:end])...)
		assert.Less(t, len(stateful.Tail()), len(k))
		start = end
	}

	assert.Equal(t, NewConvolution(k).Execute(signal), got)
}

func TestConvolutionSincContinuity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	k, err := kernel.Sinc(0.2, kernel.DefaultTransitionBand)
	require.NoError(t, err)

	c1 := randomChunk(rng, 256)
	c2 := randomChunk(rng, 256)

	stateful := NewConvolution(k)
	got := append(stateful.Execute(c1), stateful.Execute(c2)...)
	want := NewConvolution(k).Execute(append(append([]int(nil), c1...), c2...))

	require.Len(t, got, len(want))
	for i := range want {
		// Summation order differs across the boundary; truncation may flip by one
		assert.InDelta(t, want[i], got[i], 1, "sample %d", i)
	}
}

func TestConvolutionEmptyChunk(t *testing.T) {
	c := NewConvolution(kernel.Kernel{0.5, 0.5})
	c.Execute([]int{4, 4})
	tail := c.Tail()

	assert.Empty(t, c.Execute(nil))
	assert.Equal(t, tail, c.Tail())
}

func TestConvolutionSetKernelKeepsTail(t *testing.T) {
	c := NewConvolution(kernel.Kernel{0.25, 0.25, 0.25, 0.25})
	c.Execute([]int{100, 100, 100, 100})
	require.Len(t, c.Tail(), 3)

	c.SetKernel(kernel.Kernel{0.5, 0.25, 0.125, 0.125})
	assert.Len(t, c.Tail(), 3)

	c.SetKernel(kernel.Kernel{0.5, 0.5})
	assert.Equal(t, []float64{75}, c.Tail())

	c.Reset()
	assert.Empty(t, c.Tail())
}

func TestPlaybackSpeedIdentity(t *testing.T) {
	p, err := NewPlaybackSpeed(1, kernel.DefaultTransitionBand)
	require.NoError(t, err)

	chunk := []int{1, -2, 3, -4, 5}
	assert.Equal(t, chunk, p.Execute(chunk))
	assert.Equal(t, chunk, p.Execute(chunk))
}

func TestPlaybackSpeedLengths(t *testing.T) {
	tests := []struct {
		name   string
		ratio  float64
		chunks []int
		want   []int
	}{
		{"double speed", 2, []int{100}, []int{50}},
		{"half speed", 0.5, []int{100}, []int{200}},
		{"carry fractional position", 3, []int{100, 100}, []int{34, 33}},
		{"quarter speed", 0.25, []int{10, 10}, []int{40, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlaybackSpeed(tt.ratio, kernel.DefaultTransitionBand)
			require.NoError(t, err)

			for i, n := range tt.chunks {
				out := p.Execute(make([]int, n))
				assert.Len(t, out, tt.want[i], "chunk %d", i)
			}
		})
	}
}

func TestPlaybackSpeedHoldsSamples(t *testing.T) {
	p, err := NewPlaybackSpeed(0.5, kernel.DefaultTransitionBand)
	require.NoError(t, err)
	// Bypass anti-aliasing to observe the hold stage directly
	p.AntiAlias().SetKernel(kernel.Identity())

	assert.Equal(t, []int{1, 1, 2, 2, 3, 3}, p.Execute([]int{1, 2, 3}))

	require.NoError(t, p.SetRatio(2))
	p.AntiAlias().SetKernel(kernel.Identity())
	assert.Equal(t, []int{1, 3, 5}, p.Execute([]int{1, 2, 3, 4, 5, 6}))
}

func TestPlaybackSpeedAntiAliasSmoothsSteps(t *testing.T) {
	p, err := NewPlaybackSpeed(0.5, kernel.DefaultTransitionBand)
	require.NoError(t, err)
	assert.Len(t, p.AntiAlias().Kernel(), 81)

	// A constant signal passes a unity-gain low-pass unchanged once the
	// rollover has filled.
	chunk := make([]int, 200)
	for i := range chunk {
		chunk[i] = 1000
	}
	p.Execute(chunk)
	out := p.Execute(chunk)
	for _, v := range out {
		assert.InDelta(t, 1000, v, 1)
	}
}

func TestPlaybackSpeedSetRatio(t *testing.T) {
	p, err := NewPlaybackSpeed(1, kernel.DefaultTransitionBand)
	require.NoError(t, err)

	require.NoError(t, p.SetRatio(1.5))
	assert.Equal(t, 1.5, p.Ratio())
	assert.Len(t, p.AntiAlias().Kernel(), 81)

	for _, r := range []float64{0, -1} {
		err := p.SetRatio(r)
		assert.True(t, errors.Is(err, kernel.ErrInvalidControlValue))
	}
	assert.Equal(t, 1.5, p.Ratio())

	_, err = NewPlaybackSpeed(0, kernel.DefaultTransitionBand)
	assert.Error(t, err)
}

func TestRunDispatch(t *testing.T) {
	conv := NewConvolution(kernel.Kernel{0.5})
	speed, err := NewPlaybackSpeed(2, kernel.DefaultTransitionBand)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4}, Run(conv, []int{4, 8}))
	assert.Len(t, Run(speed, make([]int, 10)), 5)

	assert.Equal(t, "convolution", Name(conv))
	assert.Equal(t, "speed", Name(speed))
}

func mustBox(t *testing.T, strength int) kernel.Kernel {
	t.Helper()
	k, err := kernel.Box(strength)
	require.NoError(t, err)
	return k
}
