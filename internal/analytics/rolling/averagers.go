package rolling

import (
	"github.com/soltixdb/casetrend/internal/analytics"
)

// MeanAverager is the arithmetic mean of the window
type MeanAverager struct{}

func init() {
	Register(&MeanAverager{})
	Register(&MedianAverager{})
}

// Name returns the statistic name
func (m *MeanAverager) Name() string {
	return "mean"
}

// Reduce returns the arithmetic mean
func (m *MeanAverager) Reduce(window []float64) float64 {
	return analytics.Series(window).Mean()
}

// MedianAverager is the median of the window. Robust against single-day
// reporting spikes.
type MedianAverager struct{}

// Name returns the statistic name
func (m *MedianAverager) Name() string {
	return "median"
}

// Reduce returns the median; an even-sized window averages the two middle values
func (m *MedianAverager) Reduce(window []float64) float64 {
	return analytics.Series(window).Median()
}
