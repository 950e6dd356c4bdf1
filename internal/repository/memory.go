package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"expense-ledger/internal/aggregate"
	"expense-ledger/internal/domain"
	"expense-ledger/internal/errors"
)

// MemoryStore is a map-backed LedgerStore for tests and local runs.
// It shares the aggregation semantics of the durable backends through
// the aggregate package.
type MemoryStore struct {
	mu  sync.RWMutex
	txs map[string]domain.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs: make(map[string]domain.Transaction),
	}
}

var _ domain.LedgerStore = (*MemoryStore)(nil)

func (s *MemoryStore) Insert(ctx context.Context, tx *domain.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	stored := *tx
	stored.ID = id
	s.txs[id] = stored
	return id, nil
}

func (s *MemoryStore) Find(ctx context.Context, p domain.Period) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		if p.Matches(tx.Date) {
			matched = append(matched, tx)
		}
	}
	// Insertion order, with the id as a deterministic tie-breaker.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch domain.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return errors.ErrTransactionNotFound
	}

	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Kind != nil {
		tx.Kind = *patch.Kind
	}
	tx.UpdatedAt = patch.UpdatedAt
	s.txs[id] = tx
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[id]; !ok {
		return errors.ErrTransactionNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *MemoryStore) Totals(ctx context.Context, p domain.Period) (domain.Totals, error) {
	matched, err := s.Find(ctx, p)
	if err != nil {
		return domain.Totals{}, err
	}
	return aggregate.Totals(matched), nil
}

func (s *MemoryStore) MonthlyTotals(ctx context.Context, year int) ([]domain.MonthTotal, error) {
	all, err := s.Find(ctx, domain.Period{Year: &year})
	if err != nil {
		return nil, err
	}
	return aggregate.MonthlyGroups(all, year), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
