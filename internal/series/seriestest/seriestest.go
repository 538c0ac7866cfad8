// Package seriestest builds small in-memory tables for tests.
package seriestest

import (
	"time"

	"github.com/soltixdb/casetrend/internal/series"
)

// Start is the first date of every generated axis
var Start = time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)

// Dates returns n consecutive days starting at Start
func Dates(n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = Start.AddDate(0, 0, i)
	}
	return dates
}

// Country describes one country of a generated table. Missing categories are
// filled with zeros.
type Country struct {
	Name       string
	Confirmed  []float64
	Deaths     []float64
	Recovered  []float64
	Population float64
}

// Table builds a table of length n from countries. It panics on integrity
// errors, which only occur when a test passes inconsistent lengths.
func Table(n int, countries ...Country) *series.Table {
	dates := Dates(n)
	confirmed := &series.CaseTable{Dates: dates}
	deaths := &series.CaseTable{Dates: dates}
	recovered := &series.CaseTable{Dates: dates}
	var population []series.PopulationRow

	for _, c := range countries {
		confirmed.Rows = append(confirmed.Rows, series.CaseRow{Country: c.Name, Counts: orZeros(c.Confirmed, n)})
		deaths.Rows = append(deaths.Rows, series.CaseRow{Country: c.Name, Counts: orZeros(c.Deaths, n)})
		recovered.Rows = append(recovered.Rows, series.CaseRow{Country: c.Name, Counts: orZeros(c.Recovered, n)})
		if c.Population > 0 {
			population = append(population, series.PopulationRow{Country: c.Name, Population: c.Population})
		}
	}

	table, err := series.LoadRawTable(confirmed, deaths, recovered, population)
	if err != nil {
		panic(err)
	}
	return table
}

// Flat returns a series of length n where every value is v
func Flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns a cumulative series of length n growing by step per day
func Ramp(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = step * float64(i)
	}
	return out
}

func orZeros(values []float64, n int) []float64 {
	if values == nil {
		return make([]float64, n)
	}
	return values
}
