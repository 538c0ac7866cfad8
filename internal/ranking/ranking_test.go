package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/series/seriestest"
)

func countries(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Country
	}
	return out
}

func TestRank_DropsTopRow(t *testing.T) {
	table := seriestest.Table(3,
		seriestest.Country{Name: "A", Confirmed: []float64{0, 50, 100}},
		seriestest.Country{Name: "B", Confirmed: []float64{0, 25, 50}},
	)

	result, err := Rank(table, series.Confirmed, false, 2, DefaultExclusionRule())
	require.NoError(t, err)

	require.Len(t, result.ByTotal, 1)
	assert.Equal(t, "B", result.ByTotal[0].Country)
	assert.Equal(t, 50.0, result.ByTotal[0].Value)

	require.Len(t, result.ByDailyAverage, 1)
	assert.Equal(t, "B", result.ByDailyAverage[0].Country)
	assert.Equal(t, 25.0, result.ByDailyAverage[0].Value)
	assert.Equal(t, 25.0, result.ByDailyAverage[0].Latest)
}

func TestRank_OrderAndTies(t *testing.T) {
	table := seriestest.Table(4,
		seriestest.Country{Name: "Zeta", Confirmed: []float64{0, 10, 20, 30}},
		seriestest.Country{Name: "Alpha", Confirmed: []float64{0, 10, 20, 30}},
		seriestest.Country{Name: "Mid", Confirmed: []float64{0, 0, 0, 60}},
		seriestest.Country{Name: "Low", Confirmed: []float64{0, 1, 2, 3}},
	)

	result, err := Rank(table, series.Confirmed, false, 3, ExclusionRule{})
	require.NoError(t, err)

	// daily averages over the last 3 days: Mid 20, Alpha 10, Zeta 10, Low 1
	assert.Equal(t, []string{"Mid", "Alpha", "Zeta", "Low"}, countries(result.ByDailyAverage))
	assert.Equal(t, []string{"Mid", "Alpha", "Zeta", "Low"}, countries(result.ByTotal))
	assert.Equal(t, 60.0, result.ByDailyAverage[0].Latest)
}

func TestRank_WindowLongerThanSeries(t *testing.T) {
	table := seriestest.Table(3,
		seriestest.Country{Name: "A", Confirmed: []float64{0, 3, 9}},
	)

	result, err := Rank(table, series.Confirmed, false, 30, ExclusionRule{})
	require.NoError(t, err)
	require.Len(t, result.ByDailyAverage, 1)
	assert.InDelta(t, 3.0, result.ByDailyAverage[0].Value, 1e-9)
}

func TestRank_PerCapita(t *testing.T) {
	table := seriestest.Table(2,
		seriestest.Country{Name: "Big", Deaths: []float64{0, 1000}, Population: 100_000_000},
		seriestest.Country{Name: "Small", Deaths: []float64{0, 100}, Population: 1_000_000},
		seriestest.Country{Name: "Unknown", Deaths: []float64{0, 5000}},
	)

	result, err := Rank(table, series.Deaths, true, 1, ExclusionRule{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Small", "Big"}, countries(result.ByTotal))
	assert.InDelta(t, 100.0, result.ByTotal[0].Value, 1e-9)
	assert.InDelta(t, 10.0, result.ByTotal[1].Value, 1e-9)
	assert.True(t, result.PerCapita)
	assert.Equal(t, series.Deaths, result.Category)
}

func TestRank_PerCapitaExactQuotient(t *testing.T) {
	table := seriestest.Table(2,
		seriestest.Country{Name: "A", Confirmed: []float64{0, 10}, Population: 3_000_000},
	)

	result, err := Rank(table, series.Confirmed, true, 1, ExclusionRule{})
	require.NoError(t, err)
	require.Len(t, result.ByTotal, 1)
	assert.Equal(t, 10.0/3, result.ByTotal[0].Value)
	assert.Equal(t, 10.0/3, result.ByDailyAverage[0].Value)
	assert.Equal(t, 10.0/3, result.ByDailyAverage[0].Latest)
}

func TestExclusionRule_Apply(t *testing.T) {
	rows := []Row{{Country: "World"}, {Country: "A"}, {Country: "B"}}

	tests := []struct {
		name     string
		rule     ExclusionRule
		expected []string
	}{
		{name: "none", rule: ExclusionRule{}, expected: []string{"World", "A", "B"}},
		{name: "top", rule: ExclusionRule{Top: 1}, expected: []string{"A", "B"}},
		{name: "named", rule: ExclusionRule{Countries: []string{"world"}}, expected: []string{"A", "B"}},
		{name: "named then top", rule: ExclusionRule{Countries: []string{"World"}, Top: 1}, expected: []string{"B"}},
		{name: "top exceeds rows", rule: ExclusionRule{Top: 5}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countries(tt.rule.Apply(rows)))
		})
	}
	assert.Len(t, rows, 3, "input must not be modified")
}

func TestRank_InvalidInput(t *testing.T) {
	table := seriestest.Table(2, seriestest.Country{Name: "A"})

	_, err := Rank(nil, series.Confirmed, false, 7, ExclusionRule{})
	assert.Error(t, err)

	_, err = Rank(table, series.Category("active"), false, 7, ExclusionRule{})
	assert.Error(t, err)

	_, err = Rank(table, series.Confirmed, false, 0, ExclusionRule{})
	assert.Error(t, err)
}
