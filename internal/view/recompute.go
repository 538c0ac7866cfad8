package view

import (
	"fmt"

	"github.com/soltixdb/casetrend/internal/dataset"
	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
)

// Recompute derives the full dataset for params from table. It is a pure
// function: the same inputs always give an identical dataset, and nothing is
// reused from earlier results. Countries not in table are skipped.
func Recompute(params Parameters, table *series.Table) (*dataset.Flat, error) {
	if table == nil {
		return nil, fmt.Errorf("recompute: table is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	derive := derivation.Params{
		Window:    params.WindowSize,
		Averaging: string(params.Averaging),
	}

	entries := make([]dataset.Entry, 0, len(params.Countries))
	seen := make(map[string]bool, len(params.Countries))
	for _, country := range params.Countries {
		if seen[country] {
			continue
		}
		raw, ok := table.Series(country, params.Category)
		if !ok {
			continue
		}
		seen[country] = true

		bundle, err := derivation.Derive(raw.Counts, derive)
		if err != nil {
			return nil, &InvalidParameterError{Param: ArgWindowSize, Value: params.WindowSize, Err: err}
		}
		if params.PerCapita {
			bundle, err = bundle.PerCapita(raw.Population)
			if err != nil {
				return nil, &InvalidParameterError{Param: ArgPerCapita, Value: country, Err: err}
			}
		}

		entries = append(entries, dataset.Entry{Country: country, Bundle: bundle})
	}

	return dataset.Assemble(table.Dates(), params.Category, entries), nil
}
