// ABOUTME: Streaming filter variant and dispatch
// ABOUTME: Closed set of chunk filters sharing the overlap-add rollover helper
package filter

// Filter is one stage of a channel's filter chain. The set of filters is
// closed: *Convolution and *PlaybackSpeed.
type Filter interface {
	// Reset discards state carried between chunks
	Reset()

	isFilter()
}

// Run feeds one chunk through f and returns exactly one chunk of output.
// Output length equals input length except for *PlaybackSpeed.
func Run(f Filter, chunk []int) []int {
	switch f := f.(type) {
	case *Convolution:
		return f.Execute(chunk)
	case *PlaybackSpeed:
		return f.Execute(chunk)
	default:
		return chunk
	}
}

// Name returns a short label for logs and status output
func Name(f Filter) string {
	switch f.(type) {
	case *Convolution:
		return "convolution"
	case *PlaybackSpeed:
		return "speed"
	default:
		return "unknown"
	}
}

// OverlapAdd folds the previous chunk's tail into the head of a full
// convolution result, truncates the first n values toward zero, and returns
// them with the remainder as the tail for the next chunk.
func OverlapAdd(full, tail []float64, n int) ([]int, []float64) {
	if len(tail) > len(full) {
		grown := make([]float64, len(tail))
		copy(grown, full)
		full = grown
	}
	for i, v := range tail {
		full[i] += v
	}

	if n > len(full) {
		n = len(full)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(full[i])
	}

	newTail := make([]float64, len(full)-n)
	copy(newTail, full[n:])
	return out, newTail
}
