package services

import (
	"context"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
)

// ReportingService aggregates posted journals into financial reports.
type ReportingService interface {
	// GenerateTrialBalance computes opening, period and closing balances per account.
	GenerateTrialBalance(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*domain.TrialBalanceResult, error)

	// ProfitAndLoss generates a profit and loss report for the period of params.
	ProfitAndLoss(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*domain.PAndLReport, error)

	// BalanceSheet generates a balance sheet as of params.To.
	BalanceSheet(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*domain.BalanceSheetReport, error)
}
