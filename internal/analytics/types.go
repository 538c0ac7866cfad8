// Package analytics provides the numeric primitives shared by the rolling
// and trend derivations: a float series with differencing, scaling and
// summary helpers.
package analytics

import (
	"math"
	"sort"
)

// Series is an ordered sequence of daily values aligned to a shared date axis.
// NaN marks a position with no value.
type Series []float64

// Clone returns an independent copy
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Diff returns the first difference of the series. The first element is 0
// because it has no predecessor.
func (s Series) Diff() Series {
	out := make(Series, len(s))
	for i := 1; i < len(s); i++ {
		out[i] = s[i] - s[i-1]
	}
	return out
}

// CumSum reverses Diff given the first element of the original series.
func (s Series) CumSum(first float64) Series {
	out := make(Series, len(s))
	if len(s) == 0 {
		return out
	}
	out[0] = first
	for i := 1; i < len(s); i++ {
		out[i] = out[i-1] + s[i]
	}
	return out
}

// Divide returns a copy with every element divided by divisor. NaN stays NaN.
func (s Series) Divide(divisor float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = v / divisor
	}
	return out
}

// Tail returns the last n elements, or the whole series when n >= len.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return Series{}
	}
	return s[len(s)-n:]
}

// Last returns the final element, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Mean calculates the mean of all values
func (s Series) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Median returns the middle value; for an even count it is the mean of the
// two middle values.
func (s Series) Median() float64 {
	if len(s) == 0 {
		return 0
	}
	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// NaNs returns a series of length n filled with NaN.
func NaNs(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
