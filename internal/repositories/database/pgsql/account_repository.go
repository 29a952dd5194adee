package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, workplace_id, name, account_type, currency_code, is_active`

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	if !account.AccountType.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown account type %q", account.AccountType))
	}
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.WorkplaceID,
		account.Name,
		string(account.AccountType),
		account.CurrencyCode,
		account.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save account "+account.AccountID, err)
	}
	return nil
}

// FindAccountsByIDs retrieves the accounts of a workplace whose ids are listed, in one query.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return accounts, nil
	}
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE workplace_id = $1 AND account_id = ANY($2);
	`
	rows, err := r.Pool.Query(ctx, query, workplaceID, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts", err)
	}
	found, err := pgx.CollectRows(rows, scanAccount)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan accounts", err)
	}
	for _, account := range found {
		accounts[account.AccountID] = account
	}
	return accounts, nil
}

func scanAccount(row pgx.CollectableRow) (domain.Account, error) {
	var account domain.Account
	var accountType string
	err := row.Scan(
		&account.AccountID,
		&account.WorkplaceID,
		&account.Name,
		&accountType,
		&account.CurrencyCode,
		&account.IsActive,
	)
	account.AccountType = domain.AccountType(accountType)
	return account, err
}
