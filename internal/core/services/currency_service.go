package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	"github.com/SscSPs/ledger-posting/internal/utils"
	"github.com/shopspring/decimal"
)

// DefaultRateLookupTimeout bounds a single exchange rate lookup.
const DefaultRateLookupTimeout = 2 * time.Second

// Convert expresses amount, given in currency from, in currency to.
// Equal currencies return the amount unchanged and ignore rate. Otherwise the product
// amount*rate is rounded half-up to the minor unit of the target currency.
func Convert(amount decimal.Decimal, from, to string, rate *decimal.Decimal) (decimal.Decimal, *domain.PostingError) {
	if from == to {
		return amount, nil
	}
	if rate == nil {
		return decimal.Zero, domain.NewMissingExchangeRateError("", from, to)
	}
	if !rate.IsPositive() {
		return decimal.Zero, domain.NewInvalidExchangeRateError("", *rate)
	}
	return utils.RoundToCurrency(amount.Mul(*rate), to), nil
}

// RateResolver picks the exchange rate used for a document: the one supplied on the
// document when present, otherwise the latest stored rate effective on the document date.
// It never falls back to a rate of 1.
type RateResolver struct {
	BaseService
	reader  portsrepo.ExchangeRateReader
	timeout time.Duration
}

// NewRateResolver creates a RateResolver. reader may be nil, in which case only supplied
// rates are accepted.
func NewRateResolver(reader portsrepo.ExchangeRateReader, timeout time.Duration) *RateResolver {
	if timeout <= 0 {
		timeout = DefaultRateLookupTimeout
	}
	return &RateResolver{reader: reader, timeout: timeout}
}

// Resolve returns the rate converting from into to as of asOf. A nil rate with a nil
// error means the currencies are equal and no conversion applies.
func (r *RateResolver) Resolve(ctx context.Context, from, to string, asOf time.Time, supplied *decimal.Decimal) (*decimal.Decimal, *domain.PostingError) {
	if from == to {
		return nil, nil
	}
	if supplied != nil {
		if !supplied.IsPositive() {
			return nil, domain.NewInvalidExchangeRateError("", *supplied)
		}
		rate := *supplied
		return &rate, nil
	}
	if r == nil || r.reader == nil {
		return nil, domain.NewMissingExchangeRateError("", from, to)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	found, err := r.reader.FindExchangeRate(lookupCtx, from, to, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			r.LogDebug(ctx, "No stored exchange rate",
				slog.String("from", from), slog.String("to", to), slog.Time("as_of", asOf))
		} else {
			r.LogError(ctx, err, "Exchange rate lookup failed",
				slog.String("from", from), slog.String("to", to), slog.Time("as_of", asOf))
		}
		return nil, domain.NewMissingExchangeRateError("", from, to)
	}
	if found == nil {
		return nil, domain.NewMissingExchangeRateError("", from, to)
	}
	if !found.Rate.IsPositive() {
		return nil, domain.NewInvalidExchangeRateError("", found.Rate)
	}
	rate := found.Rate
	return &rate, nil
}
