package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// Export formats accepted by the trial balance endpoint.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ReportQuery holds the query string of the report endpoints.
type ReportQuery struct {
	From            string `form:"from"`
	To              string `form:"to"`
	AsOf            string `form:"asOf"` // alias of To for the balance sheet
	DisplayCurrency string `form:"displayCurrency" binding:"omitempty,iso4217"`
	DisplayRate     string `form:"displayRate"`
	Format          string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// ToReportParams parses the query. A missing end date defaults to today.
func (q ReportQuery) ToReportParams(workplaceID string, today time.Time) (domain.ReportParams, error) {
	params := domain.ReportParams{
		WorkplaceID:     workplaceID,
		DisplayCurrency: q.DisplayCurrency,
	}

	var err error
	if q.From != "" {
		if params.From, err = ParseDate(q.From); err != nil {
			return params, fmt.Errorf("from: %w", err)
		}
	}
	to := q.To
	if to == "" {
		to = q.AsOf
	}
	if to == "" {
		params.To = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	} else if params.To, err = ParseDate(to); err != nil {
		return params, fmt.Errorf("to: %w", err)
	}

	if q.DisplayRate != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(q.DisplayRate))
		if err != nil {
			return params, fmt.Errorf("displayRate: %q is not a number", q.DisplayRate)
		}
		params.DisplayRate = &rate
	}
	return params, nil
}

// TrialBalanceResponse represents the trial balance report response
type TrialBalanceResponse struct {
	WorkplaceID     string                   `json:"workplaceID"`
	FromDate        string                   `json:"fromDate,omitempty"`
	ToDate          string                   `json:"toDate"`
	BaseCurrency    string                   `json:"baseCurrency"`
	DisplayCurrency string                   `json:"displayCurrency"`
	DisplayRate     decimal.Decimal          `json:"displayRate"`
	JournalCount    int                      `json:"journalCount"`
	Rows            []domain.TrialBalanceRow `json:"rows"`
	Totals          struct {
		Debit      decimal.Decimal `json:"debit"`
		Credit     decimal.Decimal `json:"credit"`
		IsBalanced bool            `json:"isBalanced"`
	} `json:"totals"`
}

// ToTrialBalanceResponse converts a trial balance result.
func ToTrialBalanceResponse(result *domain.TrialBalanceResult) TrialBalanceResponse {
	resp := TrialBalanceResponse{
		WorkplaceID:     result.WorkplaceID,
		FromDate:        FormatDate(result.From),
		ToDate:          FormatDate(result.To),
		BaseCurrency:    result.BaseCurrency,
		DisplayCurrency: result.DisplayCurrency,
		DisplayRate:     result.DisplayRate,
		JournalCount:    result.JournalCount,
		Rows:            result.Rows,
	}
	if resp.Rows == nil {
		resp.Rows = []domain.TrialBalanceRow{}
	}
	resp.Totals.Debit = result.TotalDebit
	resp.Totals.Credit = result.TotalCredit
	resp.Totals.IsBalanced = result.IsBalanced
	return resp
}

// AccountAmountResponse represents an account with its amount in a financial report
type AccountAmountResponse struct {
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

func toAccountAmounts(amounts []domain.AccountAmount) []AccountAmountResponse {
	resp := make([]AccountAmountResponse, len(amounts))
	for i, a := range amounts {
		resp[i] = AccountAmountResponse{AccountID: a.AccountID, Name: a.Name, Amount: a.NetAmount}
	}
	return resp
}

// ProfitAndLossResponse represents the profit and loss report response
type ProfitAndLossResponse struct {
	FromDate string                  `json:"fromDate,omitempty"`
	ToDate   string                  `json:"toDate"`
	Currency string                  `json:"currency"`
	Revenue  []AccountAmountResponse `json:"revenue"`
	Expenses []AccountAmountResponse `json:"expenses"`
	Summary  struct {
		TotalRevenue  decimal.Decimal `json:"totalRevenue"`
		TotalExpenses decimal.Decimal `json:"totalExpenses"`
		NetProfit     decimal.Decimal `json:"netProfit"`
	} `json:"summary"`
}

func ToProfitAndLossResponse(report *domain.PAndLReport) ProfitAndLossResponse {
	resp := ProfitAndLossResponse{
		FromDate: FormatDate(report.From),
		ToDate:   FormatDate(report.To),
		Currency: report.Currency,
		Revenue:  toAccountAmounts(report.Revenue),
		Expenses: toAccountAmounts(report.Expenses),
	}
	resp.Summary.TotalRevenue = report.TotalRevenue
	resp.Summary.TotalExpenses = report.TotalExpenses
	resp.Summary.NetProfit = report.NetProfit
	return resp
}

// BalanceSheetResponse represents the balance sheet report response
type BalanceSheetResponse struct {
	AsOf        string                  `json:"asOf"`
	Currency    string                  `json:"currency"`
	Assets      []AccountAmountResponse `json:"assets"`
	Liabilities []AccountAmountResponse `json:"liabilities"`
	Equity      []AccountAmountResponse `json:"equity"`
	Summary     struct {
		TotalAssets      decimal.Decimal `json:"totalAssets"`
		TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
		CurrentEarnings  decimal.Decimal `json:"currentEarnings"`
		TotalEquity      decimal.Decimal `json:"totalEquity"`
		IsBalanced       bool            `json:"isBalanced"`
	} `json:"summary"`
}

func ToBalanceSheetResponse(report *domain.BalanceSheetReport) BalanceSheetResponse {
	resp := BalanceSheetResponse{
		AsOf:        FormatDate(report.AsOf),
		Currency:    report.Currency,
		Assets:      toAccountAmounts(report.Assets),
		Liabilities: toAccountAmounts(report.Liabilities),
		Equity:      toAccountAmounts(report.Equity),
	}
	resp.Summary.TotalAssets = report.TotalAssets
	resp.Summary.TotalLiabilities = report.TotalLiabilities
	resp.Summary.CurrentEarnings = report.CurrentEarnings
	resp.Summary.TotalEquity = report.TotalEquity
	resp.Summary.IsBalanced = report.IsBalanced
	return resp
}
