package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/errors"
	"expense-ledger/internal/repository"
)

func intPtr(v int) *int {
	return &v
}

func newTestService(t *testing.T) (*TransactionService, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTransactionService(store, logger), store
}

func createFixture(t *testing.T, svc *TransactionService) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{
		Date:        time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Description: "rent",
		Amount:      decimal.RequireFromString("1200"),
		Kind:        domain.Debit,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateRequest{
		Date:        time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC),
		Description: "salary",
		Amount:      decimal.RequireFromString("3000"),
		Kind:        domain.Credit,
	})
	require.NoError(t, err)
}

func TestCreateRejectsInvalidKind(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, kind := range []string{"transfer", "", "DEBIT", "Credit "} {
		_, err := svc.Create(ctx, CreateRequest{
			Date:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			Amount: decimal.RequireFromString("10"),
			Kind:   domain.Kind(kind),
		})
		assert.Equal(t, errors.ErrInvalidKind, err, "kind %q", kind)
	}

	// Nothing was persisted by the rejected creates.
	txs, err := svc.List(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		Date:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("-5"),
		Kind:   domain.Debit,
	})
	assert.Equal(t, errors.ErrInvalidAmount, err)
}

func TestCreateAllowsZeroAmount(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.Create(context.Background(), CreateRequest{
		Date:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.Zero,
		Kind:   domain.Credit,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestCreateStampsTimestampsAndNormalizesDate(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Date(2024, time.June, 1, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	loc := time.FixedZone("UTC-5", -5*60*60)
	_, err := svc.Create(context.Background(), CreateRequest{
		Date:        time.Date(2024, time.March, 15, 22, 0, 0, 0, loc),
		Description: "late dinner",
		Amount:      decimal.RequireFromString("42.50"),
		Kind:        domain.Debit,
	})
	require.NoError(t, err)

	txs, err := svc.List(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, now, txs[0].CreatedAt)
	assert.Equal(t, now, txs[0].UpdatedAt)
}

func TestCreateThenListRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateRequest{
		Date:        time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Description: "rent",
		Amount:      decimal.RequireFromString("1200"),
		Kind:        domain.Debit,
	})
	require.NoError(t, err)

	txs, err := svc.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, id, txs[0].ID)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, "rent", txs[0].Description)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("1200")))
	assert.Equal(t, domain.Debit, txs[0].Kind)
}

func TestListPeriodFiltering(t *testing.T) {
	svc, _ := newTestService(t)
	createFixture(t, svc)
	ctx := context.Background()

	march, err := svc.List(ctx, intPtr(3), intPtr(2024))
	require.NoError(t, err)
	assert.Len(t, march, 2)

	april, err := svc.List(ctx, intPtr(4), intPtr(2024))
	require.NoError(t, err)
	assert.Empty(t, april)
}

func TestUpdateEmptyPatchIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	id, err := svc.Create(ctx, CreateRequest{
		Date:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("10"),
		Kind:   domain.Debit,
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return created.Add(time.Hour) }
	updated, err := svc.Update(ctx, id, domain.Patch{})
	require.NoError(t, err)
	assert.False(t, updated)

	// updated_at was not refreshed by the no-op.
	txs, err := svc.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, created, txs[0].UpdatedAt)
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	id, err := svc.Create(ctx, CreateRequest{
		Date:        time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Description: "rent",
		Amount:      decimal.RequireFromString("1200"),
		Kind:        domain.Debit,
	})
	require.NoError(t, err)

	later := created.Add(2 * time.Hour)
	svc.now = func() time.Time { return later }

	amount := decimal.RequireFromString("1250")
	updated, err := svc.Update(ctx, id, domain.Patch{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated)

	txs, err := svc.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(amount))
	assert.Equal(t, "rent", txs[0].Description)
	assert.Equal(t, later, txs[0].UpdatedAt)
	assert.Equal(t, created, txs[0].CreatedAt)
	assert.Equal(t, id, txs[0].ID)
}

func TestUpdateValidatesPatchFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateRequest{
		Date:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("10"),
		Kind:   domain.Debit,
	})
	require.NoError(t, err)

	badKind := domain.Kind("transfer")
	_, err = svc.Update(ctx, id, domain.Patch{Kind: &badKind})
	assert.Equal(t, errors.ErrInvalidKind, err)

	negative := decimal.RequireFromString("-1")
	_, err = svc.Update(ctx, id, domain.Patch{Amount: &negative})
	assert.Equal(t, errors.ErrInvalidAmount, err)
}

func TestUpdateUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	desc := "nope"
	_, err := svc.Update(context.Background(), "missing", domain.Patch{Description: &desc})
	assert.Equal(t, errors.ErrTransactionNotFound, err)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateRequest{
		Date:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("10"),
		Kind:   domain.Debit,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	assert.Equal(t, errors.ErrTransactionNotFound, svc.Delete(ctx, id))

	txs, err := svc.List(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSummaryScenario(t *testing.T) {
	svc, _ := newTestService(t)
	createFixture(t, svc)

	summary, err := svc.Summary(context.Background(), intPtr(3), intPtr(2024))
	require.NoError(t, err)

	assert.True(t, summary.TotalDebit.Equal(decimal.RequireFromString("1200")))
	assert.True(t, summary.TotalCredit.Equal(decimal.RequireFromString("3000")))
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("1800")))
}

func TestSummaryEmptyPeriodIsZero(t *testing.T) {
	svc, _ := newTestService(t)
	createFixture(t, svc)

	summary, err := svc.Summary(context.Background(), intPtr(4), intPtr(2024))
	require.NoError(t, err)

	assert.True(t, summary.TotalDebit.Equal(decimal.Zero))
	assert.True(t, summary.TotalCredit.Equal(decimal.Zero))
	assert.True(t, summary.Balance.Equal(decimal.Zero))
}

func TestMonthlyChartScenario(t *testing.T) {
	svc, _ := newTestService(t)
	createFixture(t, svc)

	series, err := svc.MonthlyChart(context.Background(), intPtr(2024))
	require.NoError(t, err)
	require.Len(t, series, 12)

	for i, entry := range series {
		assert.Equal(t, i+1, entry.Month)
		if entry.Month == 3 {
			assert.True(t, entry.Debit.Equal(decimal.RequireFromString("1200")))
			assert.True(t, entry.Credit.Equal(decimal.RequireFromString("3000")))
			continue
		}
		assert.True(t, entry.Debit.Equal(decimal.Zero), "month %d", entry.Month)
		assert.True(t, entry.Credit.Equal(decimal.Zero), "month %d", entry.Month)
	}
}

func TestMonthlyChartDefaultsToCurrentYear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC) }
	createFixture(t, svc)

	series, err := svc.MonthlyChart(ctx, nil)
	require.NoError(t, err)
	require.Len(t, series, 12)
	assert.True(t, series[2].Debit.Equal(decimal.RequireFromString("1200")))

	// A different current year sees none of the 2024 records.
	svc.now = func() time.Time { return time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC) }
	series, err = svc.MonthlyChart(ctx, nil)
	require.NoError(t, err)
	require.Len(t, series, 12)
	for _, entry := range series {
		assert.True(t, entry.Debit.Equal(decimal.Zero))
		assert.True(t, entry.Credit.Equal(decimal.Zero))
	}
}
