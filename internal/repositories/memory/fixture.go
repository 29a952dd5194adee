package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// ChartFixture is the YAML layout of a seeded chart of accounts and rate table.
type ChartFixture struct {
	Workplaces    []WorkplaceFixture    `yaml:"workplaces"`
	ExchangeRates []ExchangeRateFixture `yaml:"exchange_rates"`
}

// WorkplaceFixture lists the accounts of one workplace.
type WorkplaceFixture struct {
	WorkplaceID string           `yaml:"workplace_id"`
	Accounts    []AccountFixture `yaml:"accounts"`
}

// AccountFixture is one account. Accounts are active unless stated otherwise.
type AccountFixture struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Currency string `yaml:"currency"`
	Active   *bool  `yaml:"active"`
}

// ExchangeRateFixture is one rate. Rate is kept as a string to preserve its exact decimal value.
type ExchangeRateFixture struct {
	From          string `yaml:"from"`
	To            string `yaml:"to"`
	Rate          string `yaml:"rate"`
	DateEffective string `yaml:"date_effective"` // YYYY-MM-DD
}

// LoadFixtureFile reads a chart fixture from disk into a new store.
func LoadFixtureFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	store := NewStore()
	if err := store.LoadFixture(data); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadFixture parses YAML fixture data and adds its accounts and rates to the store.
func (s *Store) LoadFixture(data []byte) error {
	var fixture ChartFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	ctx := context.Background()
	for _, wp := range fixture.Workplaces {
		for _, a := range wp.Accounts {
			active := a.Active == nil || *a.Active
			account := domain.Account{
				AccountID:    a.ID,
				WorkplaceID:  wp.WorkplaceID,
				Name:         a.Name,
				AccountType:  domain.AccountType(a.Type),
				CurrencyCode: a.Currency,
				IsActive:     active,
			}
			if err := s.SaveAccount(ctx, account); err != nil {
				return fmt.Errorf("fixture account %s: %w", a.ID, err)
			}
		}
	}

	for i, r := range fixture.ExchangeRates {
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return fmt.Errorf("fixture exchange_rates[%d]: invalid rate %q: %w", i, r.Rate, err)
		}
		effective, err := time.Parse(time.DateOnly, r.DateEffective)
		if err != nil {
			return fmt.Errorf("fixture exchange_rates[%d]: invalid date %q: %w", i, r.DateEffective, err)
		}
		if err := s.SaveExchangeRate(ctx, domain.ExchangeRate{
			FromCurrencyCode: r.From,
			ToCurrencyCode:   r.To,
			Rate:             rate,
			DateEffective:    effective,
		}); err != nil {
			return fmt.Errorf("fixture exchange_rates[%d]: %w", i, err)
		}
	}
	return nil
}
