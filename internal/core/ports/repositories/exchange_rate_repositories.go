package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindExchangeRate retrieves the latest rate between two currencies effective on or before asOf.
	// It returns apperrors.ErrNotFound when no such rate exists.
	FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// SaveExchangeRate persists a new exchange rate.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
