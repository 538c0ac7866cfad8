// Package derivation turns one raw cumulative series into the six derived
// arrays plotted per country: cumulative and daily, each as raw, rolling and
// trend.
package derivation

import (
	"errors"
	"fmt"

	"github.com/soltixdb/casetrend/internal/analytics"
	"github.com/soltixdb/casetrend/internal/analytics/rolling"
	"github.com/soltixdb/casetrend/internal/analytics/trend"
)

var (
	// ErrInvalidWindow is returned for a window size below 1
	ErrInvalidWindow = errors.New("window size must be at least 1")
	// ErrPopulationUnavailable is returned when per-capita scaling is requested
	// for a country with zero or unknown population
	ErrPopulationUnavailable = errors.New("population unavailable")
)

// perCapitaUnit is the population denominator: values become "per million"
const perCapitaUnit = 1e6

// Kind selects cumulative totals or day-over-day increments
type Kind string

const (
	Cumulative Kind = "cumulative"
	Daily      Kind = "daily"
)

// Kinds returns both kinds in display order
func Kinds() []Kind {
	return []Kind{Cumulative, Daily}
}

// Variant selects one of the three derived forms of a series
type Variant string

const (
	Raw     Variant = "raw"
	Rolling Variant = "rolling"
	Trend   Variant = "trend"
)

// Variants returns all variants in display order
func Variants() []Variant {
	return []Variant{Raw, Rolling, Trend}
}

// IsValid reports whether v is a known variant
func (v Variant) IsValid() bool {
	switch v {
	case Raw, Rolling, Trend:
		return true
	}
	return false
}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	return k == Cumulative || k == Daily
}

// Params controls the rolling and trend derivations
type Params struct {
	Window    int
	Averaging string
}

// Bundle holds the six derived arrays of one series. Every array has the
// length of the input. Trend arrays hold NaN outside the fitted window.
type Bundle struct {
	CumulativeRaw     []float64
	CumulativeRolling []float64
	CumulativeTrend   []float64
	DailyRaw          []float64
	DailyRolling      []float64
	DailyTrend        []float64
}

// Get returns the array for kind and variant, or nil for an unknown pair
func (b *Bundle) Get(kind Kind, variant Variant) []float64 {
	switch kind {
	case Cumulative:
		switch variant {
		case Raw:
			return b.CumulativeRaw
		case Rolling:
			return b.CumulativeRolling
		case Trend:
			return b.CumulativeTrend
		}
	case Daily:
		switch variant {
		case Raw:
			return b.DailyRaw
		case Rolling:
			return b.DailyRolling
		case Trend:
			return b.DailyTrend
		}
	}
	return nil
}

// Derive computes the six arrays for counts. The input is copied.
func Derive(counts []float64, params Params) (*Bundle, error) {
	if params.Window < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, params.Window)
	}
	averager, err := rolling.Get(params.Averaging)
	if err != nil {
		return nil, err
	}

	cumulative := analytics.Series(counts).Clone()
	daily := cumulative.Diff()

	b := &Bundle{
		CumulativeRaw: cumulative,
		DailyRaw:      daily,
	}

	if b.CumulativeRolling, err = rolling.Apply(cumulative, params.Window, averager); err != nil {
		return nil, fmt.Errorf("cumulative rolling: %w", err)
	}
	if b.CumulativeTrend, err = trend.Trailing(cumulative, params.Window); err != nil {
		return nil, fmt.Errorf("cumulative trend: %w", err)
	}
	if b.DailyRolling, err = rolling.Apply(daily, params.Window, averager); err != nil {
		return nil, fmt.Errorf("daily rolling: %w", err)
	}
	if b.DailyTrend, err = trend.Trailing(daily, params.Window); err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}

	return b, nil
}

// Divide returns a new bundle with every array divided by divisor
func (b *Bundle) Divide(divisor float64) *Bundle {
	return &Bundle{
		CumulativeRaw:     analytics.Series(b.CumulativeRaw).Divide(divisor),
		CumulativeRolling: analytics.Series(b.CumulativeRolling).Divide(divisor),
		CumulativeTrend:   analytics.Series(b.CumulativeTrend).Divide(divisor),
		DailyRaw:          analytics.Series(b.DailyRaw).Divide(divisor),
		DailyRolling:      analytics.Series(b.DailyRolling).Divide(divisor),
		DailyTrend:        analytics.Series(b.DailyTrend).Divide(divisor),
	}
}

// PerCapita returns the bundle expressed per million inhabitants
func (b *Bundle) PerCapita(population float64) (*Bundle, error) {
	divisor, err := PerCapitaDivisor(population)
	if err != nil {
		return nil, err
	}
	return b.Divide(divisor), nil
}

// PerCapitaDivisor returns the population in millions. Counts divided by it
// are counts per million inhabitants.
func PerCapitaDivisor(population float64) (float64, error) {
	if !(population > 0) {
		return 0, ErrPopulationUnavailable
	}
	return population / perCapitaUnit, nil
}
