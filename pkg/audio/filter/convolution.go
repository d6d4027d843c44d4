// ABOUTME: Stateful FIR convolution filter
// ABOUTME: Per-chunk linear convolution with rollover carried across chunk boundaries
package filter

import (
	"github.com/Resonate-Protocol/filterstream/pkg/audio/kernel"
)

// Convolution applies an FIR kernel to successive chunks so that the
// concatenated output equals filtering the concatenated input.
type Convolution struct {
	kernel kernel.Kernel
	tail   []float64 // len(tail) < len(kernel)
}

// NewConvolution creates a convolution filter with an empty rollover.
// An empty kernel is replaced by the identity.
func NewConvolution(k kernel.Kernel) *Convolution {
	if len(k) == 0 {
		k = kernel.Identity()
	}
	return &Convolution{kernel: k}
}

func (c *Convolution) isFilter() {}

// Execute filters one chunk, consuming and replacing the rollover tail
func (c *Convolution) Execute(chunk []int) []int {
	full := Convolve(chunk, c.kernel)
	out, tail := OverlapAdd(full, c.tail, len(chunk))
	c.tail = tail
	return out
}

// SetKernel swaps the kernel without clearing the rollover. When the new
// kernel is shorter the tail is cut to its latency.
func (c *Convolution) SetKernel(k kernel.Kernel) {
	if len(k) == 0 {
		k = kernel.Identity()
	}
	c.kernel = k
	if limit := k.Latency(); len(c.tail) > limit {
		c.tail = c.tail[:limit]
	}
}

// Kernel returns the active kernel
func (c *Convolution) Kernel() kernel.Kernel { return c.kernel }

// Tail returns a copy of the pending rollover
func (c *Convolution) Tail() []float64 {
	return append([]float64(nil), c.tail...)
}

// Reset clears the rollover
func (c *Convolution) Reset() { c.tail = nil }

// Convolve returns the full linear convolution of chunk and k, of length
// len(chunk)+len(k)-1. Products are accumulated in float64; rounding is left
// to the caller.
func Convolve(chunk []int, k kernel.Kernel) []float64 {
	if len(k) == 0 {
		return nil
	}

	output := make([]float64, len(chunk)+len(k)-1)
	for i, sample := range chunk {
		if sample == 0 {
			continue
		}
		s := float64(sample)
		for j, coeff := range k {
			output[i+j] += coeff * s
		}
	}
	return output
}
