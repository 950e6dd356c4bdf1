package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/errors"
)

// PostgresStore is the SQL-backed LedgerStore. Period predicates use
// EXTRACT on the date column and the aggregates run as SUM ... FILTER
// queries. Amounts live in a NUMERIC column and are scanned as
// strings to keep decimal exactness.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresStore(connStr string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.NewAppError(errors.StoreUnavailable, "failed to open postgres connection").WithDetails(err.Error())
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewAppError(errors.StoreUnavailable, "postgres is unreachable").WithDetails(err.Error())
	}

	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

var _ domain.LedgerStore = (*PostgresStore)(nil)

// periodClause renders the period as a WHERE fragment. An empty
// period produces no clause at all.
func periodClause(p domain.Period) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if p.Month != nil {
		args = append(args, *p.Month)
		conds = append(conds, fmt.Sprintf("EXTRACT(MONTH FROM date) = $%d", len(args)))
	}
	if p.Year != nil {
		args = append(args, *p.Year)
		conds = append(conds, fmt.Sprintf("EXTRACT(YEAR FROM date) = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) Insert(ctx context.Context, tx *domain.Transaction) (string, error) {
	query := `
		INSERT INTO transactions (id, date, description, amount, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	id := uuid.New()
	_, err := s.db.ExecContext(
		ctx,
		query,
		id,
		tx.Date,
		tx.Description,
		tx.Amount.String(),
		string(tx.Kind),
		tx.CreatedAt,
		tx.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			s.logger.Error("Failed to insert transaction", "pq_code", pqErr.Code, "error", err)
		} else {
			s.logger.Error("Failed to insert transaction", "error", err)
		}
		return "", errors.NewAppError(errors.InternalError, "failed to insert transaction").WithDetails(err.Error())
	}

	s.logger.Info("Transaction inserted", "transaction_id", id)
	return id.String(), nil
}

func (s *PostgresStore) Find(ctx context.Context, p domain.Period) ([]domain.Transaction, error) {
	clause, args := periodClause(p)
	query := `
		SELECT id, date, description, amount, kind, created_at, updated_at
		FROM transactions` + clause + `
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to query transactions", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to query transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		var amountStr string
		var kind string

		if err := rows.Scan(&tx.ID, &tx.Date, &tx.Description, &amountStr, &kind, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			s.logger.Error("Failed to scan transaction", "error", err)
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		tx.Amount = amount
		tx.Kind = domain.Kind(kind)
		tx.Date = domain.NormalizeDate(tx.Date)
		tx.CreatedAt = tx.CreatedAt.UTC()
		tx.UpdatedAt = tx.UpdatedAt.UTC()
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read transactions").WithDetails(err.Error())
	}
	return txs, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch domain.Patch) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		// An id the store could never have assigned matches nothing.
		return errors.ErrTransactionNotFound
	}

	sets := []string{}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Date != nil {
		addSet("date", domain.NormalizeDate(*patch.Date))
	}
	if patch.Description != nil {
		addSet("description", *patch.Description)
	}
	if patch.Amount != nil {
		addSet("amount", patch.Amount.String())
	}
	if patch.Kind != nil {
		addSet("kind", string(*patch.Kind))
	}
	addSet("updated_at", patch.UpdatedAt)

	args = append(args, uid)
	query := fmt.Sprintf("UPDATE transactions SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to update transaction", "transaction_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update transaction").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		s.logger.Warn("Transaction not found for update", "transaction_id", id)
		return errors.ErrTransactionNotFound
	}

	s.logger.Info("Transaction updated", "transaction_id", id)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.ErrTransactionNotFound
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", uid)
	if err != nil {
		s.logger.Error("Failed to delete transaction", "transaction_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete transaction").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		s.logger.Warn("Transaction not found for delete", "transaction_id", id)
		return errors.ErrTransactionNotFound
	}

	s.logger.Info("Transaction deleted", "transaction_id", id)
	return nil
}

func (s *PostgresStore) Totals(ctx context.Context, p domain.Period) (domain.Totals, error) {
	clause, args := periodClause(p)
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'debit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'credit'), 0)
		FROM transactions` + clause

	var debitStr, creditStr string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&debitStr, &creditStr); err != nil {
		s.logger.Error("Totals aggregation failed", "error", err)
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "totals aggregation failed").WithDetails(err.Error())
	}

	debit, err := decimal.NewFromString(debitStr)
	if err != nil {
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "failed to parse total debit").WithDetails(err.Error())
	}
	credit, err := decimal.NewFromString(creditStr)
	if err != nil {
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "failed to parse total credit").WithDetails(err.Error())
	}
	return domain.Totals{Debit: debit, Credit: credit}, nil
}

func (s *PostgresStore) MonthlyTotals(ctx context.Context, year int) ([]domain.MonthTotal, error) {
	query := `
		SELECT
			EXTRACT(MONTH FROM date)::int,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'debit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'credit'), 0)
		FROM transactions
		WHERE EXTRACT(YEAR FROM date) = $1
		GROUP BY 1
		ORDER BY 1
	`

	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		s.logger.Error("Monthly aggregation failed", "year", year, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "monthly aggregation failed").WithDetails(err.Error())
	}
	defer rows.Close()

	groups := make([]domain.MonthTotal, 0)
	for rows.Next() {
		var month int
		var debitStr, creditStr string
		if err := rows.Scan(&month, &debitStr, &creditStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan monthly totals").WithDetails(err.Error())
		}
		debit, err := decimal.NewFromString(debitStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse monthly debit").WithDetails(err.Error())
		}
		credit, err := decimal.NewFromString(creditStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse monthly credit").WithDetails(err.Error())
		}
		groups = append(groups, domain.MonthTotal{Month: month, Debit: debit, Credit: credit})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read monthly totals").WithDetails(err.Error())
	}
	return groups, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}
