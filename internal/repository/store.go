package repository

import (
	"context"
	"fmt"
	"log/slog"

	"expense-ledger/internal/config"
	"expense-ledger/internal/domain"
)

// Supported store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// NewLedgerStore builds the LedgerStore selected by configuration.
func NewLedgerStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.LedgerStore, error) {
	switch cfg.StoreDriver {
	case DriverMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case DriverPostgres:
		return NewPostgresStore(cfg.DatabaseURL, logger)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
