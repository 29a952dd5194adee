package pgsql

import (
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the PostgreSQL repositories onto one connection pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      newPgxAccountRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		JournalRepo:      newPgxJournalRepository(dbPool),
	}
}
