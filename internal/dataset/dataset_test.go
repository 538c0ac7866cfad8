package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/series/seriestest"
)

func TestCountryToken(t *testing.T) {
	tests := []struct {
		country  string
		expected string
	}{
		{country: "Germany", expected: "Germany"},
		{country: "United Kingdom", expected: "United1Kingdom"},
		{country: "Guinea-Bissau", expected: "Guinea1Bissau"},
		{country: "Congo (Kinshasa)", expected: "Congo11Kinshasa1"},
		{country: "Taiwan*", expected: "Taiwan1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CountryToken(tt.country))
	}

	assert.Equal(t, "United Kingdom", CountryFromToken("United1Kingdom"))
	assert.Equal(t, "Guinea Bissau", CountryFromToken(CountryToken("Guinea-Bissau")))
}

func TestSeriesKey_RoundTrip(t *testing.T) {
	key := SeriesKey{
		Country:  "United Kingdom",
		Category: series.Deaths,
		Kind:     derivation.Daily,
		Variant:  derivation.Rolling,
	}
	assert.Equal(t, "United1Kingdom_deaths_daily_rolling", key.String())

	parsed, err := ParseKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseKey_Errors(t *testing.T) {
	for _, s := range []string{
		"",
		"Germany_confirmed_daily",
		"_confirmed_daily_raw",
		"Germany_active_daily_raw",
		"Germany_confirmed_weekly_raw",
		"Germany_confirmed_daily_smooth",
	} {
		_, err := ParseKey(s)
		assert.Error(t, err, "key %q", s)
	}
}

func derive(t *testing.T, counts []float64) *derivation.Bundle {
	t.Helper()
	b, err := derivation.Derive(counts, derivation.Params{Window: 2, Averaging: "mean"})
	require.NoError(t, err)
	return b
}

func TestAssemble(t *testing.T) {
	dates := seriestest.Dates(4)
	flat := Assemble(dates, series.Confirmed, []Entry{
		{Country: "Italy", Bundle: derive(t, []float64{1, 2, 3, 4})},
		{Country: "Germany", Bundle: derive(t, []float64{0, 0, 5, 5})},
	})

	assert.Equal(t, 12, flat.Len())
	assert.Equal(t, []string{"Italy", "Germany"}, flat.Countries())
	assert.Equal(t, series.Confirmed, flat.Category())
	assert.Len(t, flat.X(), 4)

	keys := flat.Keys()
	assert.Equal(t, "Italy_confirmed_cumulative_raw", keys[0].String())
	assert.Equal(t, "Italy_confirmed_daily_trend", keys[5].String())
	assert.Equal(t, "Germany_confirmed_cumulative_raw", keys[6].String())

	for _, key := range keys {
		values, ok := flat.Get(key)
		require.True(t, ok)
		assert.Len(t, values, 4, "key %s", key)
	}

	daily, ok := flat.Get(SeriesKey{Country: "Germany", Category: series.Confirmed, Kind: derivation.Daily, Variant: derivation.Raw})
	require.True(t, ok)
	assert.Equal(t, Values{0, 0, 5, 0}, daily)
}

func TestFlat_Filter(t *testing.T) {
	flat := Assemble(seriestest.Dates(3), series.Deaths, []Entry{
		{Country: "France", Bundle: derive(t, []float64{1, 2, 3})},
	})

	keys := flat.Filter(derivation.Daily, []derivation.Variant{derivation.Raw, derivation.Trend})
	require.Len(t, keys, 2)
	assert.Equal(t, derivation.Raw, keys[0].Variant)
	assert.Equal(t, derivation.Trend, keys[1].Variant)

	assert.Empty(t, flat.Filter(derivation.Cumulative, nil))
}

func TestFlat_MarshalJSON(t *testing.T) {
	flat := Assemble(seriestest.Dates(3), series.Confirmed, []Entry{
		{Country: "Korea, South", Bundle: derive(t, []float64{1, 3, 6})},
	})

	data, err := json.Marshal(flat)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 7)
	assert.JSONEq(t, `["2020-01-22","2020-01-23","2020-01-24"]`, string(decoded[AxisKey]))
	assert.JSONEq(t, `[1,3,6]`, string(decoded["Korea,1South_confirmed_cumulative_raw"]))
	assert.JSONEq(t, `[0,2,3]`, string(decoded["Korea,1South_confirmed_daily_raw"]))

	// trend over the last two points only
	var trend Values
	require.NoError(t, json.Unmarshal(decoded["Korea,1South_confirmed_cumulative_trend"], &trend))
	require.Len(t, trend, 3)
	assert.True(t, math.IsNaN(trend[0]))
	assert.InDelta(t, 3.0, trend[1], 1e-9)
	assert.InDelta(t, 6.0, trend[2], 1e-9)
}

func TestValues_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Values{1.5, math.NaN(), math.Inf(1), 0})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,null,null,0]`, string(data))

	data, err = json.Marshal(Values{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}
