package pgsql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxExchangeRateRepository implements the exchange rate repository using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepositoryFacade {
	return &PgxExchangeRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

// SaveExchangeRate inserts a rate, replacing the rate already stored for the same pair and date.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	// Normalize currency codes to uppercase
	fromCurrency := strings.ToUpper(rate.FromCurrencyCode)
	toCurrency := strings.ToUpper(rate.ToCurrencyCode)

	if fromCurrency == toCurrency {
		return apperrors.NewValidationError("from and to currencies cannot be the same")
	}
	if !rate.Rate.IsPositive() {
		return apperrors.NewValidationError("exchange rate must be positive")
	}

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO exchange_rates (from_currency_code, to_currency_code, rate, date_effective)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_currency_code, to_currency_code, date_effective)
		DO UPDATE SET rate = EXCLUDED.rate;`,
		fromCurrency, toCurrency, rate.Rate, rate.DateEffective,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save exchange rate", err)
	}
	return nil
}

// FindExchangeRate retrieves the latest direct rate effective on or before asOf. Inverse rates
// are not derived; a missing direct rate is reported as apperrors.ErrNotFound.
func (r *PgxExchangeRateRepository) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT from_currency_code, to_currency_code, rate, date_effective
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND date_effective <= $3
		ORDER BY date_effective DESC
		LIMIT 1;
	`
	var rate domain.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, strings.ToUpper(fromCurrencyCode), strings.ToUpper(toCurrencyCode), asOf).Scan(
		&rate.FromCurrencyCode,
		&rate.ToCurrencyCode,
		&rate.Rate,
		&rate.DateEffective,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find exchange rate", err)
	}
	return &rate, nil
}
