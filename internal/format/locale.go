// Package format turns money and timestamps into display strings.
//
// Every separator, prefix and placeholder comes from a Locale value so the
// rules can be tested and swapped without touching the rendering code.
package format

import "time"

// Locale describes how amounts and dates are displayed.
type Locale struct {
	ThousandsSeparator string
	DecimalSeparator   string
	DecimalPlaces      int
	CurrencySymbol     string

	// NegativePrefix is placed before the currency symbol for outcome rows.
	NegativePrefix string
	// Placeholder is shown for amounts that are missing or not loaded yet.
	Placeholder string
	// InvalidDate is shown when a timestamp cannot be parsed.
	InvalidDate string

	DateLayout string
	Location   *time.Location
}

// BRL returns the Brazilian real convention used by the dashboard.
func BRL() Locale {
	return Locale{
		ThousandsSeparator: ".",
		DecimalSeparator:   ",",
		DecimalPlaces:      2,
		CurrencySymbol:     "R$",
		NegativePrefix:     "- ",
		Placeholder:        "—",
		InvalidDate:        "--/--/----",
		DateLayout:         "02/01/2006",
		Location:           time.UTC,
	}
}
