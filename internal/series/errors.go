package series

import "fmt"

// DataIntegrityError reports malformed or inconsistent input tables.
// The table under construction is discarded.
type DataIntegrityError struct {
	Category Category
	Country  string
	Reason   string
}

func (e *DataIntegrityError) Error() string {
	switch {
	case e.Category != "" && e.Country != "":
		return fmt.Sprintf("data integrity: %s table, country %q: %s", e.Category, e.Country, e.Reason)
	case e.Category != "":
		return fmt.Sprintf("data integrity: %s table: %s", e.Category, e.Reason)
	case e.Country != "":
		return fmt.Sprintf("data integrity: country %q: %s", e.Country, e.Reason)
	}
	return "data integrity: " + e.Reason
}

func integrityError(category Category, country, format string, args ...interface{}) error {
	return &DataIntegrityError{
		Category: category,
		Country:  country,
		Reason:   fmt.Sprintf(format, args...),
	}
}
