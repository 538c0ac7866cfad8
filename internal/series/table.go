// Package series holds the raw cumulative case counts for every country and
// category on a shared date axis, plus per-country population.
//
// A Table is immutable once built. Refreshing data builds a new Table and
// swaps it into a Store, so readers never observe a partially updated table.
package series

import (
	"sort"
	"strings"
	"time"
)

// CaseRow is one parsed row of a case table. Several rows may share a country
// (sub-national entries); they are summed on load.
type CaseRow struct {
	Country string
	Counts  []float64
}

// CaseTable is one parsed case table in column-per-date layout
type CaseTable struct {
	Dates []time.Time
	Rows  []CaseRow
}

// PopulationRow carries the population of one country
type PopulationRow struct {
	Country    string
	Population float64
}

// RawSeries is the cumulative count series for one (country, category) pair
type RawSeries struct {
	Country    string
	Category   Category
	Counts     []float64
	Population float64
}

// Table is the loaded, aligned set of raw series
type Table struct {
	dates      []time.Time
	countries  []string
	lookup     map[string]string
	counts     map[Category]map[string][]float64
	population map[string]float64
}

// Dates returns the shared date axis. Callers must not modify it.
func (t *Table) Dates() []time.Time {
	return t.dates
}

// Len returns the length of the date axis
func (t *Table) Len() int {
	return len(t.dates)
}

// Countries returns all country identifiers in table order (sorted by name)
func (t *Table) Countries() []string {
	out := make([]string, len(t.countries))
	copy(out, t.countries)
	return out
}

// Has reports whether country is a canonical identifier in this table
func (t *Table) Has(country string) bool {
	_, ok := t.counts[Confirmed][country]
	return ok
}

// Series returns the raw series for country and category. Counts are shared
// with the table and must not be modified.
func (t *Table) Series(country string, category Category) (RawSeries, bool) {
	byCountry, ok := t.counts[category]
	if !ok {
		return RawSeries{}, false
	}
	counts, ok := byCountry[country]
	if !ok {
		return RawSeries{}, false
	}
	return RawSeries{
		Country:    country,
		Category:   category,
		Counts:     counts,
		Population: t.population[country],
	}, true
}

// Population returns the population of country, or 0 when unknown
func (t *Table) Population(country string) float64 {
	return t.population[country]
}

// ResolveCountry maps free-form text to a canonical identifier using a
// case-insensitive exact match.
func (t *Table) ResolveCountry(text string) (string, bool) {
	country, ok := t.lookup[strings.ToLower(strings.TrimSpace(text))]
	return country, ok
}

func newTable(dates []time.Time, counts map[Category]map[string][]float64, population map[string]float64) *Table {
	countries := make([]string, 0, len(counts[Confirmed]))
	for country := range counts[Confirmed] {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	lookup := make(map[string]string, len(countries))
	for _, country := range countries {
		lookup[strings.ToLower(country)] = country
	}

	return &Table{
		dates:      dates,
		countries:  countries,
		lookup:     lookup,
		counts:     counts,
		population: population,
	}
}
