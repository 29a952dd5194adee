package repositories

import (
	"context"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// AccountDirectory resolves account ids into accounts.
type AccountDirectory interface {
	// FindAccountsByIDs retrieves the accounts of a workplace by their IDs.
	// Unknown ids (and ids belonging to another workplace) are absent from the map.
	FindAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountDirectory
	AccountWriter
}
