package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a transaction. Credit increases the balance, debit
// decreases it. No other values are ever persisted.
type Kind string

const (
	Debit  Kind = "debit"
	Credit Kind = "credit"
)

func (k Kind) Valid() bool {
	return k == Debit || k == Credit
}

// Transaction is the single ledger entity. ID is assigned by the store
// and immutable. Amount is always non-negative; the sign is carried by
// Kind. Date is a calendar date normalized to UTC midnight.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Kind        Kind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch is a sparse update: each nil field is left untouched by the
// store. UpdatedAt is stamped by the service on every non-empty patch.
type Patch struct {
	Date        *time.Time
	Description *string
	Amount      *decimal.Decimal
	Kind        *Kind
	UpdatedAt   time.Time
}

// IsEmpty reports whether the patch carries no caller-supplied fields.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Description == nil && p.Amount == nil && p.Kind == nil
}

// Totals holds the debit/credit sums over a matched transaction set.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Summary is the balance report returned by the summary operation.
type Summary struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balance     decimal.Decimal
}

// MonthTotal holds the debit/credit sums for one calendar month.
type MonthTotal struct {
	Month  int
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// LedgerStore is the narrow persistence contract the service depends
// on. Single-record operations are atomic at the store level; the core
// performs no locking of its own.
type LedgerStore interface {
	// Insert persists a new transaction and returns the assigned id.
	Insert(ctx context.Context, tx *Transaction) (string, error)
	// Find returns the transactions matching the period, in the
	// store's default order.
	Find(ctx context.Context, p Period) ([]Transaction, error)
	// Update applies a sparse patch to the identified record. Returns
	// a not-found error when no record matches.
	Update(ctx context.Context, id string, patch Patch) error
	// Delete removes the identified record. Returns a not-found error
	// when no record matches.
	Delete(ctx context.Context, id string) error
	// Totals aggregates debit/credit sums over the matched period.
	Totals(ctx context.Context, p Period) (Totals, error)
	// MonthlyTotals aggregates per-month debit/credit sums for the
	// given year. Months with no transactions are absent.
	MonthlyTotals(ctx context.Context, year int) ([]MonthTotal, error)
	// Ping reports store reachability.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close(ctx context.Context) error
}
