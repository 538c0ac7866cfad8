// Package dataset assembles derived bundles into the flat, string-keyed
// dataset handed to the renderer.
//
// Keys are structured (SeriesKey) everywhere inside the service and only
// flattened into strings of the form
//
//	{country}_{category}_{cumulative|daily}_{raw|rolling|trend}
//
// at the encoding boundary.
package dataset

import (
	"fmt"
	"strings"

	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/series"
)

// AxisKey is the key of the shared date axis in the encoded dataset
const AxisKey = "x"

// tokenSentinel replaces characters that cannot appear in a flat key
const tokenSentinel = "1"

var tokenReplacer = strings.NewReplacer(
	" ", tokenSentinel,
	"-", tokenSentinel,
	"(", tokenSentinel,
	")", tokenSentinel,
	"*", tokenSentinel,
)

// CountryToken normalizes a country identifier for use in a flat key.
// Space, hyphen, parentheses and asterisk all become "1".
func CountryToken(country string) string {
	return tokenReplacer.Replace(country)
}

// CountryFromToken maps every "1" back to a space. Distinct original
// characters collapse, so the result is a display label, not an identifier.
func CountryFromToken(token string) string {
	return strings.ReplaceAll(token, tokenSentinel, " ")
}

// SeriesKey identifies one series in a dataset
type SeriesKey struct {
	Country  string
	Category series.Category
	Kind     derivation.Kind
	Variant  derivation.Variant
}

// String encodes the key in flat form
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s_%s_%s_%s", CountryToken(k.Country), k.Category, k.Kind, k.Variant)
}

// ParseKey decodes a flat key. The country is recovered through
// CountryFromToken and may therefore differ from the original identifier.
func ParseKey(s string) (SeriesKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) < 4 {
		return SeriesKey{}, fmt.Errorf("malformed series key: %q", s)
	}

	n := len(parts)
	key := SeriesKey{
		Country:  CountryFromToken(strings.Join(parts[:n-3], "_")),
		Category: series.Category(parts[n-3]),
		Kind:     derivation.Kind(parts[n-2]),
		Variant:  derivation.Variant(parts[n-1]),
	}

	if key.Country == "" {
		return SeriesKey{}, fmt.Errorf("malformed series key %q: empty country", s)
	}
	if !key.Category.IsValid() {
		return SeriesKey{}, fmt.Errorf("malformed series key %q: unknown category %q", s, key.Category)
	}
	if !key.Kind.IsValid() {
		return SeriesKey{}, fmt.Errorf("malformed series key %q: unknown kind %q", s, key.Kind)
	}
	if !key.Variant.IsValid() {
		return SeriesKey{}, fmt.Errorf("malformed series key %q: unknown variant %q", s, key.Variant)
	}
	return key, nil
}
