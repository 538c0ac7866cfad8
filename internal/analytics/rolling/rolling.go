// Package rolling computes trailing-window statistics over daily series.
//
// A position is defined only when the window ending there holds a full w
// observations. Undefined positions are reported as 0 rather than NaN so the
// rolling line starts at the axis instead of leaving a gap.
package rolling

import (
	"fmt"
	"sort"
)

// Averager reduces one full window to a single value
type Averager interface {
	// Name returns the statistic name used in view parameters
	Name() string
	// Reduce computes the statistic of a window. The slice must not be modified.
	Reduce(window []float64) float64
}

var averagerRegistry = make(map[string]Averager)

// Register adds an averager to the registry
func Register(averager Averager) {
	averagerRegistry[averager.Name()] = averager
}

// Get returns an averager by name
func Get(name string) (Averager, error) {
	if averager, ok := averagerRegistry[name]; ok {
		return averager, nil
	}
	return nil, fmt.Errorf("unknown averager: %s", name)
}

// List returns the registered averager names in sorted order
func List() []string {
	names := make([]string, 0, len(averagerRegistry))
	for name := range averagerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs averager over every trailing window of size window.
// Positions 0..window-2 are 0. A window larger than the series yields all zeros.
func Apply(values []float64, window int, averager Averager) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("window size must be at least 1, got %d", window)
	}
	if averager == nil {
		return nil, fmt.Errorf("averager is required")
	}

	out := make([]float64, len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = averager.Reduce(values[i-window+1 : i+1])
	}
	return out, nil
}
