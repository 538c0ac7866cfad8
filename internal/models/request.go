package models

import (
	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/view"
)

// SessionUpdateRequest represents a partial session update. Omitted fields
// are left unchanged; field names follow the query arguments.
type SessionUpdateRequest struct {
	Countries   []string `json:"countries,omitempty"`
	Data        *string  `json:"data,omitempty"`
	PerCapita   *bool    `json:"per_capita,omitempty"`
	Average     *string  `json:"average,omitempty"`
	WindowSize  *int     `json:"window_size,omitempty"`
	Scale       *string  `json:"scale,omitempty"`
	PlotRaw     *bool    `json:"plot_raw,omitempty"`
	PlotAverage *bool    `json:"plot_average,omitempty"`
	PlotTrend   *bool    `json:"plot_trend,omitempty"`
}

// ToUpdate converts the request into a view.Update. Plot flags only touch
// the variants they name; the session resolves them against its own state.
func (r *SessionUpdateRequest) ToUpdate() (view.Update, error) {
	var u view.Update

	if r.Countries != nil {
		u.Countries = r.Countries
	}

	if r.Data != nil {
		category, err := series.ParseCategory(*r.Data)
		if err != nil {
			return view.Update{}, &view.InvalidParameterError{Param: view.ArgData, Value: *r.Data, Err: err}
		}
		u.Category = &category
	}

	u.PerCapita = r.PerCapita
	u.WindowSize = r.WindowSize

	if r.Average != nil {
		averaging, err := view.ParseAveraging(*r.Average)
		if err != nil {
			return view.Update{}, err
		}
		u.Averaging = &averaging
	}

	if r.Scale != nil {
		scale, err := view.ParseScale(*r.Scale)
		if err != nil {
			return view.Update{}, err
		}
		u.Scale = &scale
	}

	show := map[derivation.Variant]*bool{
		derivation.Raw:     r.PlotRaw,
		derivation.Rolling: r.PlotAverage,
		derivation.Trend:   r.PlotTrend,
	}
	for variant, set := range show {
		if set == nil {
			continue
		}
		if u.Show == nil {
			u.Show = make(map[derivation.Variant]bool, len(show))
		}
		u.Show[variant] = *set
	}

	return u, nil
}
