// Package ranking orders countries by their latest trailing daily average and
// by their latest cumulative total.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soltixdb/casetrend/internal/analytics"
	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
)

// Row is one ranked country
type Row struct {
	Country string  `json:"country"`
	Value   float64 `json:"value"`
	// Latest is the most recent daily raw count; only set in the daily ranking
	Latest float64 `json:"latest"`
}

// Result holds both rankings for one (category, per-capita, window) choice
type Result struct {
	Category       series.Category `json:"category"`
	PerCapita      bool            `json:"per_capita"`
	Window         int             `json:"window_size"`
	ByDailyAverage []Row           `json:"by_daily_average"`
	ByTotal        []Row           `json:"by_total"`
}

// ExclusionRule removes rows from both rankings. Named countries are removed
// first, then the Top highest remaining rows.
type ExclusionRule struct {
	Countries []string
	Top       int
}

// DefaultExclusionRule drops the single highest row of each ranking
func DefaultExclusionRule() ExclusionRule {
	return ExclusionRule{Top: 1}
}

// Apply returns rows with the rule applied. rows must already be ranked.
func (r ExclusionRule) Apply(rows []Row) []Row {
	out := rows
	if len(r.Countries) > 0 {
		excluded := make(map[string]bool, len(r.Countries))
		for _, c := range r.Countries {
			excluded[strings.ToLower(strings.TrimSpace(c))] = true
		}
		out = make([]Row, 0, len(rows))
		for _, row := range rows {
			if !excluded[strings.ToLower(row.Country)] {
				out = append(out, row)
			}
		}
	}

	if r.Top <= 0 {
		return out
	}
	if r.Top >= len(out) {
		return []Row{}
	}
	return out[r.Top:]
}

// Rank builds both rankings over every country in table. The daily average
// covers the last window increments, the latest day included. With
// perCapita, countries without a known population are left out. Ties keep
// table order.
func Rank(table *series.Table, category series.Category, perCapita bool, window int, rule ExclusionRule) (*Result, error) {
	if table == nil {
		return nil, fmt.Errorf("table is required")
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category: %q", category)
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: got %d", derivation.ErrInvalidWindow, window)
	}

	countries := table.Countries()
	daily := make([]Row, 0, len(countries))
	total := make([]Row, 0, len(countries))

	for _, country := range countries {
		raw, ok := table.Series(country, category)
		if !ok {
			continue
		}

		divisor := 1.0
		if perCapita {
			d, err := derivation.PerCapitaDivisor(raw.Population)
			if err != nil {
				continue
			}
			divisor = d
		}

		cumulative := analytics.Series(raw.Counts)
		increments := cumulative.Diff()

		daily = append(daily, Row{
			Country: country,
			Value:   increments.Tail(window).Mean() / divisor,
			Latest:  increments.Last() / divisor,
		})
		total = append(total, Row{
			Country: country,
			Value:   cumulative.Last() / divisor,
		})
	}

	sortDescending(daily)
	sortDescending(total)

	return &Result{
		Category:       category,
		PerCapita:      perCapita,
		Window:         window,
		ByDailyAverage: rule.Apply(daily),
		ByTotal:        rule.Apply(total),
	}, nil
}

func sortDescending(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value > rows[j].Value
	})
}
