package models

import "strconv"

// DisplayValue pairs what a table cell shows with the value it sorts by.
type DisplayValue struct {
	Text    string
	Raw     float64
	Numeric bool
}

// NumericValue builds a cell that sorts by raw rather than by its text.
func NumericValue(text string, raw float64) DisplayValue {
	return DisplayValue{Text: text, Raw: raw, Numeric: true}
}

// TextValue builds a cell that sorts lexically by its own text.
func TextValue(text string) DisplayValue {
	return DisplayValue{Text: text}
}

// SortKey is the machine-sortable form written to data-sort. Numeric keys
// use the shortest decimal that parses back to Raw exactly.
func (d DisplayValue) SortKey() string {
	if !d.Numeric {
		return d.Text
	}
	return strconv.FormatFloat(d.Raw, 'f', -1, 64)
}
