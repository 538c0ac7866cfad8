// Package view owns the per-dashboard view parameters and keeps the derived
// dataset and rankings consistent with them.
package view

import (
	"fmt"
	"strings"

	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
)

// Averaging selects the rolling statistic
type Averaging string

const (
	Mean   Averaging = "mean"
	Median Averaging = "median"
)

// ParseAveraging converts user input into an Averaging
func ParseAveraging(s string) (Averaging, error) {
	switch Averaging(strings.ToLower(strings.TrimSpace(s))) {
	case Mean:
		return Mean, nil
	case Median:
		return Median, nil
	}
	return "", &InvalidParameterError{Param: "average", Value: s, Err: fmt.Errorf("must be mean or median")}
}

// Scale is the y-axis scale of the rendered charts
type Scale string

const (
	Linear Scale = "linear"
	Log    Scale = "log"
)

// ParseScale converts user input into a Scale
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case Linear:
		return Linear, nil
	case Log:
		return Log, nil
	}
	return "", &InvalidParameterError{Param: "scale", Value: s, Err: fmt.Errorf("must be linear or log")}
}

// DefaultWindowSize is the rolling and trend window used when none is given
const DefaultWindowSize = 7

// Parameters is the complete set of user choices for one dashboard
type Parameters struct {
	Countries  []string             `json:"countries"`
	Category   series.Category      `json:"category"`
	PerCapita  bool                 `json:"per_capita"`
	Averaging  Averaging            `json:"averaging"`
	WindowSize int                  `json:"window_size"`
	Variants   []derivation.Variant `json:"variants"`
	Scale      Scale                `json:"scale"`
}

// DefaultParameters returns the initial dashboard state
func DefaultParameters() Parameters {
	return Parameters{
		Countries:  []string{"Germany"},
		Category:   series.Confirmed,
		PerCapita:  false,
		Averaging:  Mean,
		WindowSize: DefaultWindowSize,
		Variants:   derivation.Variants(),
		Scale:      Linear,
	}
}

// Clone returns a deep copy
func (p Parameters) Clone() Parameters {
	out := p
	out.Countries = append([]string(nil), p.Countries...)
	out.Variants = append([]derivation.Variant(nil), p.Variants...)
	return out
}

// Validate checks every field. Country membership is not checked here; unknown
// countries are dropped against a concrete table.
func (p Parameters) Validate() error {
	if !p.Category.IsValid() {
		return &InvalidParameterError{Param: "data", Value: string(p.Category), Err: fmt.Errorf("unknown category")}
	}
	if p.Averaging != Mean && p.Averaging != Median {
		return &InvalidParameterError{Param: "average", Value: string(p.Averaging), Err: fmt.Errorf("must be mean or median")}
	}
	if p.WindowSize < 1 {
		return &InvalidParameterError{Param: "window_size", Value: p.WindowSize, Err: derivation.ErrInvalidWindow}
	}
	for _, v := range p.Variants {
		if !v.IsValid() {
			return &InvalidParameterError{Param: "variants", Value: string(v), Err: fmt.Errorf("unknown variant")}
		}
	}
	if p.Scale != Linear && p.Scale != Log {
		return &InvalidParameterError{Param: "scale", Value: string(p.Scale), Err: fmt.Errorf("must be linear or log")}
	}
	return nil
}

// ShowsVariant reports whether v is among the visible variants
func (p Parameters) ShowsVariant(v derivation.Variant) bool {
	for _, visible := range p.Variants {
		if visible == v {
			return true
		}
	}
	return false
}

// normalizeVariants dedups variants and puts them in display order
func normalizeVariants(variants []derivation.Variant) []derivation.Variant {
	seen := make(map[derivation.Variant]bool, len(variants))
	for _, v := range variants {
		seen[v] = true
	}
	out := make([]derivation.Variant, 0, len(seen))
	for _, v := range derivation.Variants() {
		if seen[v] {
			out = append(out, v)
			delete(seen, v)
		}
	}
	// unknown variants stay so Validate can report them
	for _, v := range variants {
		if seen[v] {
			out = append(out, v)
			delete(seen, v)
		}
	}
	return out
}

// Resolver maps free-form country text to a canonical identifier
type Resolver interface {
	ResolveCountry(text string) (string, bool)
}

// resolveCountries resolves and dedups countries in insertion order, dropping
// anything the resolver does not know.
func resolveCountries(resolver Resolver, countries []string) []string {
	out := make([]string, 0, len(countries))
	seen := make(map[string]bool, len(countries))
	for _, c := range countries {
		country, ok := resolver.ResolveCountry(c)
		if !ok || seen[country] {
			continue
		}
		seen[country] = true
		out = append(out, country)
	}
	return out
}
