package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Outcome TransactionType = "outcome"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// NullMoney is a Money that may be absent from a payload.
	NullMoney struct {
		Money
		Valid bool
	}

	// Timestamp keeps the raw wire value next to the parsed time so an
	// unparseable created_at can still be carried and rendered as a placeholder.
	Timestamp struct {
		Time  time.Time
		Raw   string
		Valid bool
	}

	Category struct {
		Title string `json:"title"`
	}

	Transaction struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Value     NullMoney       `json:"value"`
		Type      TransactionType `json:"type"`
		Category  Category        `json:"category"`
		CreatedAt Timestamp       `json:"created_at"`
	}

	// Balance is computed by the backend and trusted as-is.
	Balance struct {
		Income  NullMoney `json:"income"`
		Outcome NullMoney `json:"outcome"`
		Total   NullMoney `json:"total"`
	}

	// Result is the payload of GET transactions. Transactions keep server order.
	Result struct {
		Transactions []Transaction `json:"transactions"`
		Balance      Balance       `json:"balance"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyID       = errors.New("empty id")
)

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Outcome:
		return true
	default:
		return false
	}
}

// IsOutcome reports whether amounts of this type are shown with a negative prefix.
func (t TransactionType) IsOutcome() bool {
	return t == Outcome
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// NewNullMoney returns a valid NullMoney holding cents.
func NewNullMoney(cents int64) NullMoney {
	return NullMoney{Money: Money{Cents: cents}, Valid: true}
}

// NewTimestamp returns a valid Timestamp for t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Raw: t.Format(time.RFC3339), Valid: true}
}

// Validate checks the fields a backend must always provide for a transaction.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Value.Valid || t.Value.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// Mismatch reports whether Total differs from Income - Outcome.
// It returns false when any of the three fields is missing.
func (b Balance) Mismatch() bool {
	if !b.Income.Valid || !b.Outcome.Valid || !b.Total.Valid {
		return false
	}
	return b.Total.Cents != b.Income.Cents-b.Outcome.Cents
}

// IsEmpty reports whether the result carries no transactions.
func (r Result) IsEmpty() bool {
	return len(r.Transactions) == 0
}
