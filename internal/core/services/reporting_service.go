package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/utils/accounting"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	accounts     portsrepo.AccountDirectory
	rates        *RateResolver
	baseCurrency string
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithReportingBaseCurrency sets the base currency assumed for an empty ledger.
func WithReportingBaseCurrency(currencyCode string) ReportingServiceOption {
	return func(s *reportingService) {
		if currencyCode != "" {
			s.baseCurrency = currencyCode
		}
	}
}

// WithReportingRateResolver sets how display currency rates are looked up.
func WithReportingRateResolver(resolver *RateResolver) ReportingServiceOption {
	return func(s *reportingService) {
		s.rates = resolver
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(accounts portsrepo.AccountDirectory, options ...ReportingServiceOption) portssvc.ReportingService {
	svc := &reportingService{
		accounts:     accounts,
		rates:        NewRateResolver(nil, DefaultRateLookupTimeout),
		baseCurrency: DefaultBaseCurrency,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// accountBalance is the base-currency activity of one account. Net amounts are debits
// positive; signed amounts are positive on the account's normal side.
type accountBalance struct {
	account       domain.Account
	openingNet    decimal.Decimal
	openingSigned decimal.Decimal
	periodDebit   decimal.Decimal
	periodCredit  decimal.Decimal
	periodSigned  decimal.Decimal
}

func (b accountBalance) closingNet() decimal.Decimal {
	return b.openingNet.Add(b.periodDebit).Sub(b.periodCredit)
}

func (b accountBalance) closingSigned() decimal.Decimal {
	return b.openingSigned.Add(b.periodSigned)
}

// ledgerBalances is the aggregation shared by all reports.
type ledgerBalances struct {
	baseCurrency string
	balances     []accountBalance
	journalCount int
}

// displayConverter re-expresses base amounts in the display currency.
type displayConverter struct {
	base    string
	display string
	rate    *decimal.Decimal
}

func (c displayConverter) convert(amount decimal.Decimal) decimal.Decimal {
	if c.rate == nil {
		return amount
	}
	converted, _ := Convert(amount.Abs(), c.base, c.display, c.rate)
	if amount.IsNegative() {
		return converted.Neg()
	}
	return converted
}

func (c displayConverter) displayRate() decimal.Decimal {
	if c.rate == nil {
		return decimal.NewFromInt(1)
	}
	return *c.rate
}

// GenerateTrialBalance computes per account the opening balance before params.From, the
// period debits and credits, and the closing balance at params.To.
func (s *reportingService) GenerateTrialBalance(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*domain.TrialBalanceResult, error) {
	ledger, err := s.aggregate(ctx, params, query)
	if err != nil {
		return nil, err
	}
	conv, err := s.displayConverter(ctx, ledger.baseCurrency, params)
	if err != nil {
		return nil, err
	}

	result := &domain.TrialBalanceResult{
		WorkplaceID:       params.WorkplaceID,
		From:              params.From,
		To:                params.To,
		BaseCurrency:      ledger.baseCurrency,
		DisplayCurrency:   conv.display,
		DisplayRate:       conv.displayRate(),
		Rows:              make([]domain.TrialBalanceRow, 0, len(ledger.balances)),
		TotalDebit:        decimal.Zero,
		TotalCredit:       decimal.Zero,
		DebitNormalTotal:  decimal.Zero,
		CreditNormalTotal: decimal.Zero,
		JournalCount:      ledger.journalCount,
	}

	for _, b := range ledger.balances {
		closing := b.closingNet()
		debit, credit := decimal.Zero, decimal.Zero
		if closing.IsPositive() {
			debit = closing
		} else {
			credit = closing.Neg()
		}

		if b.account.NormalBalance() == domain.Debit {
			result.DebitNormalTotal = result.DebitNormalTotal.Add(b.closingSigned())
		} else {
			result.CreditNormalTotal = result.CreditNormalTotal.Add(b.closingSigned())
		}

		row := domain.TrialBalanceRow{
			AccountID:      b.account.AccountID,
			AccountName:    b.account.Name,
			AccountType:    b.account.AccountType,
			NormalBalance:  b.account.NormalBalance(),
			OpeningBalance: conv.convert(b.openingSigned),
			PeriodDebit:    conv.convert(b.periodDebit),
			PeriodCredit:   conv.convert(b.periodCredit),
			ClosingBalance: conv.convert(b.closingSigned()),
			Debit:          conv.convert(debit),
			Credit:         conv.convert(credit),
		}
		result.TotalDebit = result.TotalDebit.Add(row.Debit)
		result.TotalCredit = result.TotalCredit.Add(row.Credit)
		result.Rows = append(result.Rows, row)
	}
	result.IsBalanced = result.DebitNormalTotal.Equal(result.CreditNormalTotal)

	if !result.IsBalanced {
		s.LogWarn(ctx, "Trial balance does not balance",
			slog.String("workplace_id", params.WorkplaceID),
			slog.String("debit_normal_total", result.DebitNormalTotal.String()),
			slog.String("credit_normal_total", result.CreditNormalTotal.String()))
	}
	s.LogInfo(ctx, "Trial balance report generated successfully",
		slog.String("workplace_id", params.WorkplaceID),
		slog.String("to", params.To.Format(time.RFC3339)),
		slog.Int("row_count", len(result.Rows)),
		slog.Int("journal_count", ledger.journalCount))
	return result, nil
}

// ProfitAndLoss generates a profit and loss report for the period from params.From to params.To.
func (s *reportingService) ProfitAndLoss(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*domain.PAndLReport, error) {
	ledger, err := s.aggregate(ctx, params, query)
	if err != nil {
		return nil, err
	}
	conv, err := s.displayConverter(ctx, ledger.baseCurrency, params)
	if err != nil {
		return nil, err
	}

	report := &domain.PAndLReport{
		From:          params.From,
		To:            params.To,
		Currency:      conv.display,
		Revenue:       []domain.AccountAmount{},
		Expenses:      []domain.AccountAmount{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, b := range ledger.balances {
		if b.account.AccountType != domain.Income && b.account.AccountType != domain.Expense {
			continue
		}
		movement := b.periodSigned
		if movement.IsZero() {
			continue
		}
		amount := domain.AccountAmount{
			AccountID: b.account.AccountID,
			Name:      b.account.Name,
			NetAmount: conv.convert(movement),
		}
		if b.account.AccountType == domain.Income {
			report.Revenue = append(report.Revenue, amount)
			report.TotalRevenue = report.TotalRevenue.Add(amount.NetAmount)
		} else {
			report.Expenses = append(report.Expenses, amount)
			report.TotalExpenses = report.TotalExpenses.Add(amount.NetAmount)
		}
	}
	report.NetProfit = report.TotalRevenue.Sub(report.TotalExpenses)

	s.LogInfo(ctx, "Profit and loss report generated successfully",
		slog.String("workplace_id", params.WorkplaceID),
		slog.String("from", params.From.Format(time.RFC3339)),
		slog.String("to", params.To.Format(time.RFC3339)),
		slog.Int("revenue_accounts", len(report.Revenue)),
		slog.Int("expense_accounts", len(report.Expenses)))
	return report, nil
}

// BalanceSheet generates a balance sheet as of params.To. params.From is ignored; income
// and expense balances to date are carried in equity as current earnings.
func (s *reportingService) BalanceSheet(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*domain.BalanceSheetReport, error) {
	params.From = time.Time{}
	ledger, err := s.aggregate(ctx, params, query)
	if err != nil {
		return nil, err
	}
	conv, err := s.displayConverter(ctx, ledger.baseCurrency, params)
	if err != nil {
		return nil, err
	}

	report := &domain.BalanceSheetReport{
		AsOf:             params.To,
		Currency:         conv.display,
		Assets:           []domain.AccountAmount{},
		Liabilities:      []domain.AccountAmount{},
		Equity:           []domain.AccountAmount{},
		CurrentEarnings:  decimal.Zero,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}

	baseAssets, baseClaims := decimal.Zero, decimal.Zero
	earnings := decimal.Zero
	for _, b := range ledger.balances {
		closing := b.closingSigned()
		switch b.account.AccountType {
		case domain.Income:
			earnings = earnings.Add(closing)
			continue
		case domain.Expense:
			earnings = earnings.Sub(closing)
			continue
		}
		if closing.IsZero() {
			continue
		}

		amount := domain.AccountAmount{
			AccountID: b.account.AccountID,
			Name:      b.account.Name,
			NetAmount: conv.convert(closing),
		}
		switch b.account.AccountType {
		case domain.Asset:
			baseAssets = baseAssets.Add(closing)
			report.Assets = append(report.Assets, amount)
			report.TotalAssets = report.TotalAssets.Add(amount.NetAmount)
		case domain.Liability:
			baseClaims = baseClaims.Add(closing)
			report.Liabilities = append(report.Liabilities, amount)
			report.TotalLiabilities = report.TotalLiabilities.Add(amount.NetAmount)
		case domain.Equity:
			baseClaims = baseClaims.Add(closing)
			report.Equity = append(report.Equity, amount)
			report.TotalEquity = report.TotalEquity.Add(amount.NetAmount)
		}
	}
	baseClaims = baseClaims.Add(earnings)
	report.CurrentEarnings = conv.convert(earnings)
	report.TotalEquity = report.TotalEquity.Add(report.CurrentEarnings)
	report.IsBalanced = baseAssets.Equal(baseClaims)

	s.LogInfo(ctx, "Balance sheet report generated successfully",
		slog.String("workplace_id", params.WorkplaceID),
		slog.String("asOf", params.To.Format(time.RFC3339)),
		slog.Int("asset_accounts", len(report.Assets)),
		slog.Int("liability_accounts", len(report.Liabilities)),
		slog.Int("equity_accounts", len(report.Equity)),
		slog.Bool("is_balanced", report.IsBalanced))
	return report, nil
}

// aggregate loads the posted journals up to params.To and sums their lines per account,
// splitting activity before params.From (opening) from activity within the period.
func (s *reportingService) aggregate(ctx context.Context, params domain.ReportParams, query portsrepo.PostedJournalReader) (*ledgerBalances, error) {
	if params.WorkplaceID == "" {
		return nil, fmt.Errorf("%w: workplace ID is required", apperrors.ErrValidation)
	}
	if params.To.IsZero() {
		return nil, fmt.Errorf("%w: report end date is required", apperrors.ErrValidation)
	}
	if !params.From.IsZero() && params.From.After(params.To) {
		return nil, fmt.Errorf("%w: report start date %s is after end date %s", apperrors.ErrValidation,
			params.From.Format(time.DateOnly), params.To.Format(time.DateOnly))
	}
	if query == nil {
		return nil, apperrors.NewAppError(500, "no journal query configured", nil)
	}

	journals, err := query.ListPostedJournals(ctx, params.WorkplaceID, params.To)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve posted journals",
			slog.String("workplace_id", params.WorkplaceID),
			slog.String("to", params.To.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve posted journals: %w", err)
	}

	ledger := &ledgerBalances{baseCurrency: ""}
	included := make([]domain.JournalEntry, 0, len(journals))
	order := make([]string, 0)
	seen := make(map[string]bool)
	for _, journal := range journals {
		if journal.WorkplaceID != params.WorkplaceID || journal.JournalDate.After(params.To) {
			continue
		}
		if ledger.baseCurrency == "" {
			ledger.baseCurrency = journal.BaseCurrency
		} else if journal.BaseCurrency != ledger.baseCurrency {
			return nil, fmt.Errorf("%w: journal %s is in base currency %s, expected %s", apperrors.ErrConflict,
				journal.JournalID, journal.BaseCurrency, ledger.baseCurrency)
		}
		included = append(included, journal)
		for _, id := range journal.AccountIDs() {
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}
	ledger.journalCount = len(included)
	if ledger.baseCurrency == "" {
		ledger.baseCurrency = s.baseCurrency
	}
	if len(order) == 0 {
		return ledger, nil
	}

	accounts, err := s.accounts.FindAccountsByIDs(ctx, params.WorkplaceID, order)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve report accounts", slog.String("workplace_id", params.WorkplaceID))
		return nil, fmt.Errorf("failed to resolve report accounts: %w", err)
	}
	byAccount := make(map[string]*accountBalance, len(order))
	for _, id := range order {
		account, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("account %s referenced by posted journals: %w", id, apperrors.ErrNotFound)
		}
		byAccount[id] = &accountBalance{
			account:       account,
			openingNet:    decimal.Zero,
			openingSigned: decimal.Zero,
			periodDebit:   decimal.Zero,
			periodCredit:  decimal.Zero,
			periodSigned:  decimal.Zero,
		}
	}

	for _, journal := range included {
		inPeriod := params.From.IsZero() || !journal.JournalDate.Before(params.From)
		for _, line := range journal.Lines {
			b := byAccount[line.AccountID]
			signed, err := accounting.LineSignedAmount(line, b.account.AccountType)
			if err != nil {
				return nil, fmt.Errorf("%w: account %s: %v", apperrors.ErrConflict, line.AccountID, err)
			}
			if inPeriod {
				b.periodDebit = b.periodDebit.Add(line.Debit)
				b.periodCredit = b.periodCredit.Add(line.Credit)
				b.periodSigned = b.periodSigned.Add(signed)
			} else {
				b.openingNet = b.openingNet.Add(line.Debit).Sub(line.Credit)
				b.openingSigned = b.openingSigned.Add(signed)
			}
		}
	}

	ledger.balances = make([]accountBalance, 0, len(order))
	for _, id := range order {
		ledger.balances = append(ledger.balances, *byAccount[id])
	}
	sort.SliceStable(ledger.balances, func(i, j int) bool {
		ti, tj := accountTypeOrder(ledger.balances[i].account.AccountType), accountTypeOrder(ledger.balances[j].account.AccountType)
		if ti != tj {
			return ti < tj
		}
		return ledger.balances[i].account.AccountID < ledger.balances[j].account.AccountID
	})
	return ledger, nil
}

// displayConverter resolves the display rate as of params.To. A missing rate fails the
// report rather than silently showing base amounts.
func (s *reportingService) displayConverter(ctx context.Context, baseCurrency string, params domain.ReportParams) (displayConverter, error) {
	display := params.DisplayCurrency
	if display == "" || display == baseCurrency {
		return displayConverter{base: baseCurrency, display: baseCurrency}, nil
	}
	rate, perr := s.rates.Resolve(ctx, baseCurrency, display, params.To, params.DisplayRate)
	if perr != nil {
		perr.Field = "displayCurrency"
		s.LogWarn(ctx, "Display rate unavailable",
			slog.String("from", baseCurrency), slog.String("to", display), slog.String("code", string(perr.Code)))
		return displayConverter{}, fmt.Errorf("failed to convert report to %s: %w", display, perr)
	}
	return displayConverter{base: baseCurrency, display: display, rate: rate}, nil
}

func accountTypeOrder(t domain.AccountType) int {
	switch t {
	case domain.Asset:
		return 0
	case domain.Liability:
		return 1
	case domain.Equity:
		return 2
	case domain.Income:
		return 3
	case domain.Expense:
		return 4
	}
	return 5
}
