// Package trend fits ordinary least-squares lines to the tail of a series.
package trend

import (
	"fmt"

	"github.com/soltixdb/casetrend/internal/analytics"
)

// Line is a fitted y = Intercept + Slope*x
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// Fit computes the least-squares line through (xs[i], ys[i]).
// A single point, or points sharing one x, yield a flat line through the mean of ys.
func Fit(xs, ys []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, fmt.Errorf("x and y length mismatch: %d != %d", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return Line{}, fmt.Errorf("cannot fit a line to zero points")
	}

	n := float64(len(xs))

	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0

	for i := range xs {
		x := xs[i]
		sumX += x
		sumY += ys[i]
		sumXY += x * ys[i]
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return Line{Intercept: sumY / n}, nil
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n

	return Line{Slope: slope, Intercept: intercept}, nil
}

// Trailing fits one line over the final window positions of values, using
// each position's index in the full series as x, and evaluates it there.
// Every earlier position is NaN. When window >= len(values) the whole series
// is one segment.
func Trailing(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("window size must be at least 1, got %d", window)
	}

	out := analytics.NaNs(len(values))
	if len(values) == 0 {
		return out, nil
	}

	start := len(values) - window
	if start < 0 {
		start = 0
	}

	xs := make([]float64, 0, len(values)-start)
	for i := start; i < len(values); i++ {
		xs = append(xs, float64(i))
	}

	line, err := Fit(xs, values[start:])
	if err != nil {
		return nil, err
	}

	for i := start; i < len(values); i++ {
		out[i] = line.At(float64(i))
	}
	return out, nil
}
