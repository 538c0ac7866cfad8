package view

import (
	"strconv"
	"strings"

	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
)

// Query argument names accepted by ParseQuery
const (
	ArgCountry     = "country"
	ArgData        = "data"
	ArgPerCapita   = "per_capita"
	ArgWindowSize  = "window_size"
	ArgAverage     = "average"
	ArgScale       = "scale"
	ArgPlotRaw     = "plot_raw"
	ArgPlotAverage = "plot_average"
	ArgPlotTrend   = "plot_trend"
)

// ParseQuery converts free-form request arguments into Parameters, starting
// from defaults. Argument names are case-insensitive and "country" may repeat.
// Unknown countries are dropped; when "country" is absent the default list is
// kept. Malformed values yield an *InvalidParameterError.
func ParseQuery(values map[string][]string, resolver Resolver, defaults Parameters) (Parameters, error) {
	args := make(map[string][]string, len(values))
	for k, v := range values {
		key := strings.ToLower(strings.TrimSpace(k))
		args[key] = append(args[key], v...)
	}

	p := defaults.Clone()

	if raw, ok := args[ArgCountry]; ok {
		p.Countries = resolveCountries(resolver, raw)
	} else {
		p.Countries = resolveCountries(resolver, p.Countries)
	}

	if v, ok := last(args, ArgData); ok {
		category, err := series.ParseCategory(v)
		if err != nil {
			return Parameters{}, &InvalidParameterError{Param: ArgData, Value: v, Err: err}
		}
		p.Category = category
	}

	if v, ok := last(args, ArgPerCapita); ok {
		b, err := parseBool(ArgPerCapita, v)
		if err != nil {
			return Parameters{}, err
		}
		p.PerCapita = b
	}

	if v, ok := last(args, ArgWindowSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Parameters{}, &InvalidParameterError{Param: ArgWindowSize, Value: v, Err: err}
		}
		if n < 1 {
			return Parameters{}, &InvalidParameterError{Param: ArgWindowSize, Value: v, Err: derivation.ErrInvalidWindow}
		}
		p.WindowSize = n
	}

	if v, ok := last(args, ArgAverage); ok {
		a, err := ParseAveraging(v)
		if err != nil {
			return Parameters{}, err
		}
		p.Averaging = a
	}

	if v, ok := last(args, ArgScale); ok {
		s, err := ParseScale(v)
		if err != nil {
			return Parameters{}, err
		}
		p.Scale = s
	}

	flags := []struct {
		arg     string
		variant derivation.Variant
	}{
		{ArgPlotRaw, derivation.Raw},
		{ArgPlotAverage, derivation.Rolling},
		{ArgPlotTrend, derivation.Trend},
	}
	visible := make(map[derivation.Variant]bool, len(flags))
	for _, f := range flags {
		visible[f.variant] = p.ShowsVariant(f.variant)
		v, ok := last(args, f.arg)
		if !ok {
			continue
		}
		b, err := parseBool(f.arg, v)
		if err != nil {
			return Parameters{}, err
		}
		visible[f.variant] = b
	}
	p.Variants = p.Variants[:0]
	for _, f := range flags {
		if visible[f.variant] {
			p.Variants = append(p.Variants, f.variant)
		}
	}

	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

func last(args map[string][]string, key string) (string, bool) {
	v, ok := args[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[len(v)-1], true
}

func parseBool(param, v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, &InvalidParameterError{Param: param, Value: v, Err: err}
	}
	return b, nil
}
