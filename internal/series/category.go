package series

import (
	"fmt"
	"strings"
)

// Category identifies one of the three case tables
type Category string

const (
	Confirmed Category = "confirmed"
	Deaths    Category = "deaths"
	Recovered Category = "recovered"
)

// Categories returns all categories in display order
func Categories() []Category {
	return []Category{Confirmed, Deaths, Recovered}
}

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case Confirmed, Deaths, Recovered:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts user input into a Category. Matching is
// case-insensitive and accepts the singular "death".
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return Confirmed, nil
	case "deaths", "death":
		return Deaths, nil
	case "recovered":
		return Recovered, nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}
