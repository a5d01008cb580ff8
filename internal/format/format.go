package format

import (
	"strconv"
	"strings"
	"time"

	"gofinances/internal/core"
)

// Formatter renders values according to a Locale. The zero value is not
// usable; build one with New.
type Formatter struct {
	locale Locale
}

// New returns a Formatter for l. Missing fields fall back to BRL values.
func New(l Locale) *Formatter {
	def := BRL()
	if l.DecimalSeparator == "" {
		l.DecimalSeparator = def.DecimalSeparator
	}
	if l.DecimalPlaces < 0 {
		l.DecimalPlaces = 0
	}
	if l.Placeholder == "" {
		l.Placeholder = def.Placeholder
	}
	if l.InvalidDate == "" {
		l.InvalidDate = def.InvalidDate
	}
	if l.DateLayout == "" {
		l.DateLayout = def.DateLayout
	}
	if l.Location == nil {
		l.Location = time.UTC
	}
	return &Formatter{locale: l}
}

// Locale returns the configuration in use.
func (f *Formatter) Locale() Locale {
	return f.locale
}

// Placeholder returns the text shown for an amount that is not available.
func (f *Formatter) Placeholder() string {
	return f.locale.Placeholder
}

// Currency formats an aggregate amount: "R$ 1.234,50". Negative values put
// the minus sign before the symbol: "-R$ 10,00".
func (f *Formatter) Currency(m core.Money) string {
	s := f.symbol() + f.Number(m.Abs())
	if m.IsNegative() {
		return "-" + s
	}
	return s
}

// NullCurrency formats n or returns the placeholder when it is missing.
func (f *Formatter) NullCurrency(n core.NullMoney) string {
	if !n.Valid {
		return f.locale.Placeholder
	}
	return f.Currency(n.Money)
}

// Transaction formats a row amount. The sign is carried only by the prefix:
// outcome rows read "- R$ 10,00", income rows "R$ 10,00". A missing amount
// renders the placeholder without prefix.
func (f *Formatter) Transaction(tx core.Transaction) string {
	if !tx.Value.Valid {
		return f.locale.Placeholder
	}
	s := f.symbol() + f.Number(tx.Value.Abs())
	if tx.Type.IsOutcome() {
		return f.locale.NegativePrefix + s
	}
	return s
}

// Number formats the magnitude of m without any symbol: "1.234,50".
func (f *Formatter) Number(m core.Money) string {
	cents := m.Abs().Cents
	places := f.locale.DecimalPlaces

	var units int64
	var frac string
	switch {
	case places == 0:
		units = (cents + 50) / 100
	case places == 1:
		dimes := (cents + 5) / 10
		units = dimes / 10
		frac = strconv.FormatInt(dimes%10, 10)
	default:
		units = cents / 100
		frac = strconv.FormatInt(cents%100, 10)
		if len(frac) < 2 {
			frac = "0" + frac
		}
		frac += strings.Repeat("0", places-2)
	}

	out := groupThousands(strconv.FormatInt(units, 10), f.locale.ThousandsSeparator)
	if places > 0 {
		out += f.locale.DecimalSeparator + frac
	}
	return out
}

// Date renders ts as a calendar date in the locale's time zone. Invalid
// timestamps render the InvalidDate placeholder.
func (f *Formatter) Date(ts core.Timestamp) string {
	if !ts.Valid || ts.Time.IsZero() {
		return f.locale.InvalidDate
	}
	return ts.Time.In(f.locale.Location).Format(f.locale.DateLayout)
}

func (f *Formatter) symbol() string {
	if f.locale.CurrencySymbol == "" {
		return ""
	}
	return f.locale.CurrencySymbol + " "
}

// groupThousands inserts sep every three digits from the right.
func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
