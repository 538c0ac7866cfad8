package series

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)

func testDates(n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = testStart.AddDate(0, 0, i)
	}
	return dates
}

func caseTable(n int, rows ...CaseRow) *CaseTable {
	return &CaseTable{Dates: testDates(n), Rows: rows}
}

func TestLoadRawTable_AggregatesSubNationalRows(t *testing.T) {
	confirmed := caseTable(3,
		CaseRow{Country: "Australia", Counts: []float64{1, 2, 3}},
		CaseRow{Country: "Australia", Counts: []float64{10, 20, 30}},
		CaseRow{Country: "Germany", Counts: []float64{0, 5, 9}},
	)
	deaths := caseTable(3,
		CaseRow{Country: "Australia", Counts: []float64{0, 0, 1}},
		CaseRow{Country: "Germany", Counts: []float64{0, 0, 0}},
	)
	recovered := caseTable(3,
		CaseRow{Country: "Germany", Counts: []float64{0, 1, 2}},
		CaseRow{Country: "Australia", Counts: []float64{0, 0, 0}},
	)

	table, err := LoadRawTable(confirmed, deaths, recovered, []PopulationRow{
		{Country: "Germany", Population: 83_000_000},
		{Country: "Atlantis", Population: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Australia", "Germany"}, table.Countries())

	raw, ok := table.Series("Australia", Confirmed)
	require.True(t, ok)
	assert.Equal(t, []float64{11, 22, 33}, raw.Counts)
	assert.Equal(t, 0.0, raw.Population)

	raw, ok = table.Series("Germany", Recovered)
	require.True(t, ok)
	assert.Equal(t, 83_000_000.0, raw.Population)
	assert.Equal(t, 0.0, table.Population("Atlantis"))
	assert.False(t, table.Has("Atlantis"))
}

func TestLoadRawTable_IntegrityErrors(t *testing.T) {
	good := func() *CaseTable {
		return caseTable(3, CaseRow{Country: "Germany", Counts: []float64{1, 2, 3}})
	}

	tests := []struct {
		name      string
		confirmed *CaseTable
		deaths    *CaseTable
		recovered *CaseTable
	}{
		{
			name:      "missing date axis",
			confirmed: &CaseTable{Rows: []CaseRow{{Country: "Germany"}}},
			deaths:    good(),
			recovered: good(),
		},
		{
			name:      "nil table",
			confirmed: good(),
			deaths:    nil,
			recovered: good(),
		},
		{
			name:      "axis length differs",
			confirmed: good(),
			deaths:    caseTable(4, CaseRow{Country: "Germany", Counts: []float64{1, 2, 3, 4}}),
			recovered: good(),
		},
		{
			name:      "axis dates differ",
			confirmed: good(),
			deaths: &CaseTable{
				Dates: []time.Time{testStart, testStart.AddDate(0, 0, 1), testStart.AddDate(0, 0, 5)},
				Rows:  []CaseRow{{Country: "Germany", Counts: []float64{1, 2, 3}}},
			},
			recovered: good(),
		},
		{
			name:      "row length mismatch",
			confirmed: good(),
			deaths:    good(),
			recovered: caseTable(3, CaseRow{Country: "Germany", Counts: []float64{1, 2}}),
		},
		{
			name:      "country missing from deaths",
			confirmed: caseTable(3, CaseRow{Country: "Germany", Counts: []float64{1, 2, 3}}, CaseRow{Country: "France", Counts: []float64{1, 2, 3}}),
			deaths:    good(),
			recovered: caseTable(3, CaseRow{Country: "Germany", Counts: []float64{1, 2, 3}}, CaseRow{Country: "France", Counts: []float64{1, 2, 3}}),
		},
		{
			name:      "extra country in recovered",
			confirmed: good(),
			deaths:    good(),
			recovered: caseTable(3, CaseRow{Country: "Germany", Counts: []float64{1, 2, 3}}, CaseRow{Country: "France", Counts: []float64{1, 2, 3}}),
		},
		{
			name: "dates not increasing",
			confirmed: &CaseTable{
				Dates: []time.Time{testStart, testStart, testStart.AddDate(0, 0, 1)},
				Rows:  []CaseRow{{Country: "Germany", Counts: []float64{1, 2, 3}}},
			},
			deaths:    good(),
			recovered: good(),
		},
		{
			name:      "empty country identifier",
			confirmed: caseTable(3, CaseRow{Country: " ", Counts: []float64{1, 2, 3}}),
			deaths:    good(),
			recovered: good(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadRawTable(tt.confirmed, tt.deaths, tt.recovered, nil)
			require.Error(t, err)
			assert.Nil(t, table)

			var integrityErr *DataIntegrityError
			assert.True(t, errors.As(err, &integrityErr), "expected DataIntegrityError, got %T", err)
		})
	}
}

func TestResolveCountry(t *testing.T) {
	table, err := LoadRawTable(
		caseTable(1, CaseRow{Country: "Germany", Counts: []float64{1}}, CaseRow{Country: "Korea, South", Counts: []float64{1}}),
		caseTable(1, CaseRow{Country: "Germany", Counts: []float64{0}}, CaseRow{Country: "Korea, South", Counts: []float64{0}}),
		caseTable(1, CaseRow{Country: "Germany", Counts: []float64{0}}, CaseRow{Country: "Korea, South", Counts: []float64{0}}),
		nil,
	)
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
		found    bool
	}{
		{input: "gErMaNy", expected: "Germany", found: true},
		{input: "Germany", expected: "Germany", found: true},
		{input: "  korea, south ", expected: "Korea, South", found: true},
		{input: "Atlantis", found: false},
		{input: "", found: false},
		{input: "Germ", found: false},
	}

	for _, tt := range tests {
		got, ok := table.ResolveCountry(tt.input)
		assert.Equal(t, tt.found, ok, "input %q", tt.input)
		assert.Equal(t, tt.expected, got, "input %q", tt.input)
	}
}

func TestStore_Swap(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.Current())

	first, err := LoadRawTable(
		caseTable(1, CaseRow{Country: "Germany", Counts: []float64{1}}),
		caseTable(1, CaseRow{Country: "Germany", Counts: []float64{0}}),
		caseTable(1, CaseRow{Country: "Germany", Counts: []float64{0}}),
		nil,
	)
	require.NoError(t, err)

	snap1 := store.Swap(first)
	assert.Equal(t, uint64(1), snap1.Version)
	assert.Same(t, snap1, store.Current())

	snap2 := store.Swap(first)
	assert.Equal(t, uint64(2), snap2.Version)

	// a holder of the old snapshot still sees its own table
	assert.Same(t, first, snap1.Table)
	assert.Equal(t, uint64(2), store.Current().Version)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
		wantErr  bool
	}{
		{input: "confirmed", expected: Confirmed},
		{input: "Deaths", expected: Deaths},
		{input: "death", expected: Deaths},
		{input: " RECOVERED ", expected: Recovered},
		{input: "active", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, got)
		assert.True(t, got.IsValid())
	}
}
