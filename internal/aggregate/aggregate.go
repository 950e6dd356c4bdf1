// Package aggregate owns the arithmetic semantics shared by every
// ledger store backend: debit/credit totals, the balance identity and
// the gap-filled monthly series.
package aggregate

import (
	"github.com/shopspring/decimal"

	"expense-ledger/internal/domain"
)

// Totals sums debit and credit amounts over a transaction set. An
// empty set yields exact zeros.
func Totals(txs []domain.Transaction) domain.Totals {
	var t domain.Totals
	for _, tx := range txs {
		switch tx.Kind {
		case domain.Debit:
			t.Debit = t.Debit.Add(tx.Amount)
		case domain.Credit:
			t.Credit = t.Credit.Add(tx.Amount)
		}
	}
	return t
}

// Summarize derives the balance report from totals:
// balance = total_credit - total_debit.
func Summarize(t domain.Totals) domain.Summary {
	return domain.Summary{
		TotalDebit:  t.Debit,
		TotalCredit: t.Credit,
		Balance:     t.Credit.Sub(t.Debit),
	}
}

// MonthlyGroups buckets a transaction set by calendar month for one
// year and sums debit/credit per bucket. Months without transactions
// are absent; the result is sparse and unordered.
func MonthlyGroups(txs []domain.Transaction, year int) []domain.MonthTotal {
	byMonth := make(map[int]domain.MonthTotal)
	for _, tx := range txs {
		month, y := domain.Bucket(tx.Date)
		if y != year {
			continue
		}
		mt := byMonth[month]
		mt.Month = month
		switch tx.Kind {
		case domain.Debit:
			mt.Debit = mt.Debit.Add(tx.Amount)
		case domain.Credit:
			mt.Credit = mt.Credit.Add(tx.Amount)
		}
		byMonth[month] = mt
	}
	groups := make([]domain.MonthTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		groups = append(groups, mt)
	}
	return groups
}

// FillMonths expands sparse month groups into exactly 12 entries,
// months 1 through 12 ascending. Absent months carry zero debit and
// credit. Groups outside 1-12 are dropped.
func FillMonths(groups []domain.MonthTotal) []domain.MonthTotal {
	byMonth := make(map[int]domain.MonthTotal, len(groups))
	for _, g := range groups {
		if g.Month >= 1 && g.Month <= 12 {
			byMonth[g.Month] = g
		}
	}
	series := make([]domain.MonthTotal, 0, 12)
	for month := 1; month <= 12; month++ {
		mt, ok := byMonth[month]
		if !ok {
			mt = domain.MonthTotal{Month: month, Debit: decimal.Zero, Credit: decimal.Zero}
		}
		series = append(series, mt)
	}
	return series
}
