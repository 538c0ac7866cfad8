// Package ingest reads the published time-series CSV files and turns them
// into the tables series.LoadRawTable consumes.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/casetrend/internal/series"
)

// Column layout of the case tables: Province/State, Country/Region, Lat, Long,
// then one column per date.
const (
	countryColumn    = 1
	firstDateColumn  = 4
	caseDateLayout   = "1/2/06"
	countryHeader    = "country/region"
	populationHeader = "population"
)

// ParseCaseCSV parses one case table. Sub-national rows are kept as separate
// rows; they are summed when the table is loaded. Empty cells count as 0.
func ParseCaseCSV(r io.Reader) (*series.CaseTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("case table is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) <= firstDateColumn {
		return nil, fmt.Errorf("case table header has %d columns, expected date columns after column %d", len(header), firstDateColumn)
	}

	dates := make([]time.Time, 0, len(header)-firstDateColumn)
	for i, h := range header[firstDateColumn:] {
		d, err := time.Parse(caseDateLayout, strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("column %d: invalid date %q: %w", i+firstDateColumn, h, err)
		}
		dates = append(dates, d)
	}

	table := &series.CaseTable{Dates: dates}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(record))
		}

		counts := make([]float64, len(dates))
		for i, cell := range record[firstDateColumn:] {
			v, err := parseCount(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, i+firstDateColumn, err)
			}
			counts[i] = v
		}

		table.Rows = append(table.Rows, series.CaseRow{
			Country: strings.TrimSpace(record[countryColumn]),
			Counts:  counts,
		})
	}

	return table, nil
}

// ParsePopulationCSV parses the population table. The country and population
// columns are located by header name.
func ParsePopulationCSV(r io.Reader) ([]series.PopulationRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("population table is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	countryIdx, populationIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case countryHeader, "country":
			countryIdx = i
		case populationHeader:
			populationIdx = i
		}
	}
	if countryIdx < 0 || populationIdx < 0 {
		return nil, fmt.Errorf("population table needs %q and %q columns", "Country/Region", "Population")
	}

	var rows []series.PopulationRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if countryIdx >= len(record) || populationIdx >= len(record) {
			return nil, fmt.Errorf("line %d: missing columns", line)
		}

		population, err := parseCount(record[populationIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, series.PopulationRow{
			Country:    strings.TrimSpace(record[countryIdx]),
			Population: population,
		})
	}

	return rows, nil
}

func parseCount(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", cell)
	}
	return v, nil
}
