package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"expense-ledger/internal/aggregate"
	"expense-ledger/internal/domain"
	"expense-ledger/internal/errors"
)

// TransactionService orchestrates ledger operations against the
// store. It holds no mutable state between requests; everything
// durable lives behind the LedgerStore.
type TransactionService struct {
	store  domain.LedgerStore
	logger *slog.Logger
	now    func() time.Time
}

func NewTransactionService(store domain.LedgerStore, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

type CreateRequest struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Kind        domain.Kind
}

// Create validates the request, stamps the timestamps and inserts the
// transaction. Returns the store-assigned id.
func (s *TransactionService) Create(ctx context.Context, req CreateRequest) (string, error) {
	if !req.Kind.Valid() {
		s.logger.Warn("Rejected transaction with invalid kind", "kind", req.Kind)
		return "", errors.ErrInvalidKind
	}
	if req.Amount.IsNegative() {
		s.logger.Warn("Rejected transaction with negative amount", "amount", req.Amount)
		return "", errors.ErrInvalidAmount
	}

	now := s.now().UTC()
	tx := &domain.Transaction{
		Date:        domain.NormalizeDate(req.Date),
		Description: req.Description,
		Amount:      req.Amount,
		Kind:        req.Kind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.store.Insert(ctx, tx)
	if err != nil {
		return "", err
	}

	s.logger.Info("Transaction created", "transaction_id", id, "kind", req.Kind, "amount", req.Amount)
	return id, nil
}

// List returns the transactions matching the optional month/year
// selectors, in the store's default order.
func (s *TransactionService) List(ctx context.Context, month, year *int) ([]domain.Transaction, error) {
	return s.store.Find(ctx, domain.Period{Month: month, Year: year})
}

// Update applies a sparse patch to the identified transaction. An
// empty patch is a no-op reported as updated=false without contacting
// the store; otherwise updated_at is refreshed unconditionally.
func (s *TransactionService) Update(ctx context.Context, id string, patch domain.Patch) (bool, error) {
	if patch.IsEmpty() {
		s.logger.Info("Empty patch, skipping update", "transaction_id", id)
		return false, nil
	}

	if patch.Kind != nil && !patch.Kind.Valid() {
		s.logger.Warn("Rejected update with invalid kind", "transaction_id", id, "kind", *patch.Kind)
		return false, errors.ErrInvalidKind
	}
	if patch.Amount != nil && patch.Amount.IsNegative() {
		s.logger.Warn("Rejected update with negative amount", "transaction_id", id, "amount", *patch.Amount)
		return false, errors.ErrInvalidAmount
	}
	if patch.Date != nil {
		normalized := domain.NormalizeDate(*patch.Date)
		patch.Date = &normalized
	}
	patch.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, id, patch); err != nil {
		return false, err
	}

	s.logger.Info("Transaction updated", "transaction_id", id)
	return true, nil
}

// Delete removes the identified transaction permanently.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Transaction deleted", "transaction_id", id)
	return nil
}

// Summary returns debit/credit totals and the balance over the
// selected period. An empty match yields exact zeros.
func (s *TransactionService) Summary(ctx context.Context, month, year *int) (domain.Summary, error) {
	totals, err := s.store.Totals(ctx, domain.Period{Month: month, Year: year})
	if err != nil {
		return domain.Summary{}, err
	}
	return aggregate.Summarize(totals), nil
}

// MonthlyChart returns per-month debit/credit totals for the given
// year, gap-filled to exactly 12 ascending entries. The year defaults
// to the current UTC year.
func (s *TransactionService) MonthlyChart(ctx context.Context, year *int) ([]domain.MonthTotal, error) {
	y := s.now().UTC().Year()
	if year != nil {
		y = *year
	}

	groups, err := s.store.MonthlyTotals(ctx, y)
	if err != nil {
		return nil, err
	}
	return aggregate.FillMonths(groups), nil
}
