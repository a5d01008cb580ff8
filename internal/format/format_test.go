package format

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"gofinances/internal/core"
)

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func TestCurrency(t *testing.T) {
	f := New(BRL())
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{40, "R$ 0,40"},
		{500, "R$ 5,00"},
		{50000, "R$ 500,00"},
		{123450, "R$ 1.234,50"},
		{100000000, "R$ 1.000.000,00"},
		{12345678901, "R$ 123.456.789,01"},
		{-1000, "-R$ 10,00"},
	}
	for _, tc := range cases {
		if got := f.Currency(money(tc.cents)); got != tc.want {
			t.Errorf("Currency(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestTransactionPrefix(t *testing.T) {
	f := New(BRL())
	income := core.Transaction{Type: core.Income, Value: core.NewNullMoney(123450)}
	outcome := core.Transaction{Type: core.Outcome, Value: core.NewNullMoney(123450)}
	unknown := core.Transaction{Type: "transfer", Value: core.NewNullMoney(100)}

	if got := f.Transaction(income); got != "R$ 1.234,50" {
		t.Errorf("income = %q", got)
	}
	if got := f.Transaction(outcome); got != "- R$ 1.234,50" {
		t.Errorf("outcome = %q", got)
	}
	if got := f.Transaction(unknown); strings.HasPrefix(got, "- ") {
		t.Errorf("unknown type must not carry the outcome prefix: %q", got)
	}
}

func TestTransactionMissingValue(t *testing.T) {
	f := New(BRL())
	for _, typ := range []core.TransactionType{core.Income, core.Outcome, "transfer"} {
		tx := core.Transaction{Type: typ}
		if got := f.Transaction(tx); got != f.Placeholder() {
			t.Errorf("%s without value = %q, want placeholder", typ, got)
		}
	}
}

func TestTransactionNeverShowsNegativeNumeral(t *testing.T) {
	f := New(BRL())
	tx := core.Transaction{Type: core.Outcome, Value: core.NewNullMoney(-250)}
	if got := f.Transaction(tx); got != "- R$ 2,50" {
		t.Fatalf("got %q", got)
	}
}

func TestNumberShape(t *testing.T) {
	f := New(BRL())
	shape := regexp.MustCompile(`^\d{1,3}(\.\d{3})*,\d{2}$`)
	for _, cents := range []int64{0, 1, 9, 10, 99, 100, 999, 1000, 99999, 100000, 123456789, 987654321012} {
		got := f.Number(money(cents))
		if !shape.MatchString(got) {
			t.Errorf("Number(%d) = %q has wrong shape", cents, got)
		}
		if strings.Count(got, ",") != 1 {
			t.Errorf("Number(%d) = %q must have exactly one decimal separator", cents, got)
		}
	}
}

func TestNumberDecimalPlaces(t *testing.T) {
	cases := []struct {
		places int
		cents  int64
		want   string
	}{
		{0, 149, "1"},
		{0, 150, "2"},
		{1, 1234, "12,3"},
		{1, 1235, "12,4"},
		{3, 1234, "12,340"},
		{4, 5, "0,0500"},
	}
	for _, tc := range cases {
		l := BRL()
		l.DecimalPlaces = tc.places
		if got := New(l).Number(money(tc.cents)); got != tc.want {
			t.Errorf("places=%d Number(%d) = %q, want %q", tc.places, tc.cents, got, tc.want)
		}
	}
}

func TestCustomLocale(t *testing.T) {
	f := New(Locale{
		ThousandsSeparator: ",",
		DecimalSeparator:   ".",
		DecimalPlaces:      2,
		CurrencySymbol:     "US$",
		NegativePrefix:     "(-) ",
	})
	if got := f.Transaction(core.Transaction{Type: core.Outcome, Value: core.NewNullMoney(123450)}); got != "(-) US$ 1,234.50" {
		t.Fatalf("got %q", got)
	}
}

func TestNullCurrency(t *testing.T) {
	f := New(BRL())
	if got := f.NullCurrency(core.NullMoney{}); got != f.Placeholder() {
		t.Fatalf("missing amount = %q, want placeholder", got)
	}
	if got := f.NullCurrency(core.NewNullMoney(50000)); got != "R$ 500,00" {
		t.Fatalf("got %q", got)
	}
}

func TestDate(t *testing.T) {
	f := New(BRL())
	cases := []struct {
		ts   core.Timestamp
		want string
	}{
		{core.ParseTimestamp("2021-02-10T00:00:00Z"), "10/02/2021"},
		{core.ParseTimestamp("2021-02-10T23:59:59Z"), "10/02/2021"},
		{core.ParseTimestamp("2021-02-10T22:00:00-03:00"), "11/02/2021"},
		{core.ParseTimestamp("2021-12-01"), "01/12/2021"},
		{core.ParseTimestamp("garbage"), "--/--/----"},
		{core.Timestamp{}, "--/--/----"},
		{core.Timestamp{Valid: true}, "--/--/----"},
	}
	for _, tc := range cases {
		if got := f.Date(tc.ts); got != tc.want {
			t.Errorf("Date(%q) = %q, want %q", tc.ts.Raw, got, tc.want)
		}
	}
}

func TestDateLocation(t *testing.T) {
	l := BRL()
	l.Location = time.FixedZone("BRT", -3*60*60)
	f := New(l)
	if got := f.Date(core.ParseTimestamp("2021-02-10T00:00:00Z")); got != "09/02/2021" {
		t.Fatalf("got %q", got)
	}
}

func TestDateOffsetInput(t *testing.T) {
	ts := core.ParseTimestamp("2021-02-10T22:00:00-03:00")

	if got := New(BRL()).Date(ts); got != "11/02/2021" {
		t.Fatalf("UTC date = %q, want 11/02/2021", got)
	}

	l := BRL()
	l.Location = time.FixedZone("BRT", -3*60*60)
	if got := New(l).Date(ts); got != "10/02/2021" {
		t.Fatalf("BRT date = %q, want 10/02/2021", got)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[string]string{
		"0":       "0",
		"123":     "123",
		"1234":    "1.234",
		"123456":  "123.456",
		"1234567": "1.234.567",
	}
	for in, want := range cases {
		if got := groupThousands(in, "."); got != want {
			t.Errorf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}
