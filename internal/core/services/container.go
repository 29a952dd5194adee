package services

import (
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	// Both services share one resolver so lookups use the same timeout.
	rates := NewRateResolver(repos.ExchangeRateRepo, cfg.RateLookupTimeout)

	return &portssvc.ServiceContainer{
		Posting: NewPostingService(
			repos.AccountRepo,
			repos.JournalRepo,
			WithBaseCurrency(cfg.BaseCurrency),
			WithBalanceTolerance(cfg.BalanceTolerance),
			WithAdvanceAccounts(cfg.CustomerAdvanceAccountID, cfg.SupplierAdvanceAccountID),
			WithRoundingAccount(cfg.RoundingAccountID),
			WithRateResolver(rates),
		),
		Reporting: NewReportingService(
			repos.AccountRepo,
			WithReportingBaseCurrency(cfg.BaseCurrency),
			WithReportingRateResolver(rates),
		),
		JournalQuery: repos.JournalRepo,
	}
}
