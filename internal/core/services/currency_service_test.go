package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	"github.com/SscSPs/ledger-posting/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeRateReader ---
type MockExchangeRateReader struct {
	mock.Mock
}

var _ portsrepo.ExchangeRateReader = (*MockExchangeRateReader)(nil)

func (m *MockExchangeRateReader) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCurrencyCode, toCurrencyCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestConvert_SameCurrencyIsIdentity(t *testing.T) {
	amounts := []string{"0", "0.01", "100", "12345.67", "99999999.99"}
	for _, a := range amounts {
		converted, perr := services.Convert(dec(a), "MYR", "MYR", decPtr("4.5"))
		require.Nil(t, perr)
		assert.True(t, converted.Equal(dec(a)), "amount %s", a)
	}
}

func TestConvert_RoundsHalfUpToTargetPrecision(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		rate   string
		want   string
	}{
		{"two decimals", "1", "USD", "MYR", "4.445", "4.45"},
		{"below half", "1", "USD", "MYR", "4.4449", "4.44"},
		{"zero decimal target", "1", "USD", "JPY", "150.5", "151"},
		{"three decimal target", "1", "USD", "KWD", "0.3075", "0.308"},
		{"plain product", "100", "USD", "MYR", "4.5", "450"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converted, perr := services.Convert(dec(tt.amount), tt.from, tt.to, decPtr(tt.rate))
			require.Nil(t, perr)
			assert.Equal(t, dec(tt.want).String(), converted.String())
		})
	}
}

func TestConvert_RateErrors(t *testing.T) {
	_, perr := services.Convert(dec("10"), "USD", "MYR", nil)
	require.NotNil(t, perr)
	assert.Equal(t, domain.CodeMissingExchangeRate, perr.Code)

	_, perr = services.Convert(dec("10"), "USD", "MYR", decPtr("0"))
	require.NotNil(t, perr)
	assert.Equal(t, domain.CodeInvalidExchangeRate, perr.Code)
	assert.True(t, errors.Is(perr, apperrors.ErrInvalidExchangeRate))
}

// --- Test Suite ---
type RateResolverTestSuite struct {
	suite.Suite
	mockReader *MockExchangeRateReader
	resolver   *services.RateResolver
	asOf       time.Time
}

func (suite *RateResolverTestSuite) SetupTest() {
	suite.mockReader = new(MockExchangeRateReader)
	suite.resolver = services.NewRateResolver(suite.mockReader, time.Second)
	suite.asOf = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *RateResolverTestSuite) TestSameCurrencyNeedsNoRate() {
	rate, perr := suite.resolver.Resolve(context.Background(), "MYR", "MYR", suite.asOf, nil)
	suite.Nil(perr)
	suite.Nil(rate)
	suite.mockReader.AssertNotCalled(suite.T(), "FindExchangeRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateResolverTestSuite) TestSuppliedRateWins() {
	rate, perr := suite.resolver.Resolve(context.Background(), "USD", "MYR", suite.asOf, decPtr("4.4"))
	suite.Require().Nil(perr)
	suite.True(rate.Equal(dec("4.4")))
	suite.mockReader.AssertNotCalled(suite.T(), "FindExchangeRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateResolverTestSuite) TestSuppliedRateMustBePositive() {
	_, perr := suite.resolver.Resolve(context.Background(), "USD", "MYR", suite.asOf, decPtr("-1"))
	suite.Require().NotNil(perr)
	suite.Equal(domain.CodeInvalidExchangeRate, perr.Code)
	suite.True(perr.Amounts[domain.AmountRate].Equal(dec("-1")))
}

func (suite *RateResolverTestSuite) TestStoredRate() {
	suite.mockReader.On("FindExchangeRate", mock.Anything, "USD", "MYR", suite.asOf).
		Return(&domain.ExchangeRate{FromCurrencyCode: "USD", ToCurrencyCode: "MYR", Rate: dec("4.5")}, nil).Once()

	rate, perr := suite.resolver.Resolve(context.Background(), "USD", "MYR", suite.asOf, nil)
	suite.Require().Nil(perr)
	suite.True(rate.Equal(dec("4.5")))
	suite.mockReader.AssertExpectations(suite.T())
}

func (suite *RateResolverTestSuite) TestNotFoundIsMissingRate() {
	suite.mockReader.On("FindExchangeRate", mock.Anything, "EUR", "MYR", suite.asOf).
		Return(nil, apperrors.ErrNotFound).Once()

	_, perr := suite.resolver.Resolve(context.Background(), "EUR", "MYR", suite.asOf, nil)
	suite.Require().NotNil(perr)
	suite.Equal(domain.CodeMissingExchangeRate, perr.Code)
	suite.Contains(perr.Message, "EUR")
}

func (suite *RateResolverTestSuite) TestLookupFailureIsMissingRate() {
	suite.mockReader.On("FindExchangeRate", mock.Anything, "EUR", "MYR", suite.asOf).
		Return(nil, errors.New("connection reset")).Once()

	_, perr := suite.resolver.Resolve(context.Background(), "EUR", "MYR", suite.asOf, nil)
	suite.Require().NotNil(perr)
	suite.Equal(domain.CodeMissingExchangeRate, perr.Code)
}

func (suite *RateResolverTestSuite) TestStoredNonPositiveRate() {
	suite.mockReader.On("FindExchangeRate", mock.Anything, "USD", "MYR", suite.asOf).
		Return(&domain.ExchangeRate{Rate: decimal.Zero}, nil).Once()

	_, perr := suite.resolver.Resolve(context.Background(), "USD", "MYR", suite.asOf, nil)
	suite.Require().NotNil(perr)
	suite.Equal(domain.CodeInvalidExchangeRate, perr.Code)
}

func (suite *RateResolverTestSuite) TestNoReaderNeverDefaultsToOne() {
	resolver := services.NewRateResolver(nil, 0)
	_, perr := resolver.Resolve(context.Background(), "USD", "MYR", suite.asOf, nil)
	suite.Require().NotNil(perr)
	suite.Equal(domain.CodeMissingExchangeRate, perr.Code)
}

func TestRateResolver(t *testing.T) {
	suite.Run(t, new(RateResolverTestSuite))
}
