package series

import (
	"strings"
	"time"
)

// LoadRawTable aligns the three case tables and the population rows into a
// Table. Rows sharing a country are summed. Population is optional per
// country and defaults to 0.
//
// It fails with a *DataIntegrityError when a table has no date axis, the date
// axes disagree, a row length differs from its axis, or a country is missing
// from one of the case tables.
func LoadRawTable(confirmed, deaths, recovered *CaseTable, population []PopulationRow) (*Table, error) {
	tables := map[Category]*CaseTable{
		Confirmed: confirmed,
		Deaths:    deaths,
		Recovered: recovered,
	}

	var dates []time.Time
	for _, category := range Categories() {
		ct := tables[category]
		if ct == nil || len(ct.Dates) == 0 {
			return nil, integrityError(category, "", "no resolvable date axis")
		}
		if err := checkAxis(category, ct.Dates); err != nil {
			return nil, err
		}
		if dates == nil {
			dates = ct.Dates
			continue
		}
		if err := compareAxes(category, dates, ct.Dates); err != nil {
			return nil, err
		}
	}

	counts := make(map[Category]map[string][]float64, len(tables))
	for _, category := range Categories() {
		byCountry, err := aggregate(category, tables[category], len(dates))
		if err != nil {
			return nil, err
		}
		counts[category] = byCountry
	}

	for _, category := range Categories()[1:] {
		if err := compareCountries(category, counts[Confirmed], counts[category]); err != nil {
			return nil, err
		}
	}

	pop := make(map[string]float64, len(population))
	for _, row := range population {
		country := strings.TrimSpace(row.Country)
		if _, ok := counts[Confirmed][country]; !ok {
			continue
		}
		if row.Population > 0 {
			pop[country] = row.Population
		}
	}

	axis := make([]time.Time, len(dates))
	copy(axis, dates)

	return newTable(axis, counts, pop), nil
}

func checkAxis(category Category, dates []time.Time) error {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return integrityError(category, "", "date axis not strictly increasing at column %d", i)
		}
	}
	return nil
}

func compareAxes(category Category, want, got []time.Time) error {
	if len(want) != len(got) {
		return integrityError(category, "", "date axis has %d dates, expected %d", len(got), len(want))
	}
	for i := range want {
		if !want[i].Equal(got[i]) {
			return integrityError(category, "", "date axis differs at column %d: %s != %s",
				i, got[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
	return nil
}

func aggregate(category Category, ct *CaseTable, length int) (map[string][]float64, error) {
	byCountry := make(map[string][]float64)
	for _, row := range ct.Rows {
		country := strings.TrimSpace(row.Country)
		if country == "" {
			return nil, integrityError(category, "", "row without country identifier")
		}
		if len(row.Counts) != length {
			return nil, integrityError(category, country, "row has %d counts, expected %d", len(row.Counts), length)
		}

		sum, ok := byCountry[country]
		if !ok {
			sum = make([]float64, length)
			byCountry[country] = sum
		}
		for i, v := range row.Counts {
			sum[i] += v
		}
	}
	return byCountry, nil
}

func compareCountries(category Category, reference, other map[string][]float64) error {
	for country := range reference {
		if _, ok := other[country]; !ok {
			return integrityError(category, country, "country missing from table")
		}
	}
	for country := range other {
		if _, ok := reference[country]; !ok {
			return integrityError(Confirmed, country, "country missing from table")
		}
	}
	return nil
}
