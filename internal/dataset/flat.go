package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
)

// DateLayout is the encoding of the shared date axis
const DateLayout = "2006-01-02"

// Values is one encoded series. NaN marshals as JSON null.
type Values []float64

// MarshalJSON implements json.Marshaler
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(v) * 8)
	buf.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes as NaN
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*v = out
	return nil
}

// Entry is the derived bundle of one country
type Entry struct {
	Country string
	Bundle  *derivation.Bundle
}

// Flat is the assembled dataset: one shared date axis plus six series per
// country. It is rebuilt from scratch on every parameter change and never
// patched in place.
type Flat struct {
	dates     []time.Time
	category  series.Category
	countries []string
	keys      []SeriesKey
	series    map[SeriesKey]Values
}

// Assemble builds a Flat from bundles in the given country order. The date
// axis is shared with the caller and must not be modified.
func Assemble(dates []time.Time, category series.Category, entries []Entry) *Flat {
	f := &Flat{
		dates:     dates,
		category:  category,
		countries: make([]string, 0, len(entries)),
		keys:      make([]SeriesKey, 0, len(entries)*6),
		series:    make(map[SeriesKey]Values, len(entries)*6),
	}

	for _, entry := range entries {
		f.countries = append(f.countries, entry.Country)
		for _, kind := range derivation.Kinds() {
			for _, variant := range derivation.Variants() {
				key := SeriesKey{
					Country:  entry.Country,
					Category: category,
					Kind:     kind,
					Variant:  variant,
				}
				f.keys = append(f.keys, key)
				f.series[key] = Values(entry.Bundle.Get(kind, variant))
			}
		}
	}
	return f
}

// X returns the shared date axis
func (f *Flat) X() []time.Time {
	return f.dates
}

// Category returns the category all series belong to
func (f *Flat) Category() series.Category {
	return f.category
}

// Countries returns the countries in insertion order
func (f *Flat) Countries() []string {
	out := make([]string, len(f.countries))
	copy(out, f.countries)
	return out
}

// Keys returns every series key in deterministic order: country insertion
// order, then kind, then variant.
func (f *Flat) Keys() []SeriesKey {
	out := make([]SeriesKey, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of series, excluding the date axis
func (f *Flat) Len() int {
	return len(f.keys)
}

// Get returns the series for key
func (f *Flat) Get(key SeriesKey) (Values, bool) {
	v, ok := f.series[key]
	return v, ok
}

// Filter returns the keys of kind whose variant is in variants, in key order.
// This is the set of lines a chart of that kind draws.
func (f *Flat) Filter(kind derivation.Kind, variants []derivation.Variant) []SeriesKey {
	visible := make(map[derivation.Variant]bool, len(variants))
	for _, v := range variants {
		visible[v] = true
	}

	var out []SeriesKey
	for _, key := range f.keys {
		if key.Kind == kind && visible[key.Variant] {
			out = append(out, key)
		}
	}
	return out
}

// Encode flattens the dataset into string keys. The date axis is stored
// under AxisKey as YYYY-MM-DD strings.
func (f *Flat) Encode() map[string]interface{} {
	out := make(map[string]interface{}, len(f.keys)+1)

	x := make([]string, len(f.dates))
	for i, d := range f.dates {
		x[i] = d.Format(DateLayout)
	}
	out[AxisKey] = x

	for _, key := range f.keys {
		out[key.String()] = f.series[key]
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (f *Flat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Encode())
}
