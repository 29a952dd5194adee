package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportParams selects the posted journals and display currency for a report.
type ReportParams struct {
	WorkplaceID     string           `json:"workplaceID"`
	From            time.Time        `json:"from"` // zero means from the beginning of the ledger
	To              time.Time        `json:"to"`
	DisplayCurrency string           `json:"displayCurrency"` // empty means the base currency
	DisplayRate     *decimal.Decimal `json:"displayRate,omitempty"`
}

// TrialBalanceRow represents a single account in a trial balance report.
// Amounts are in the display currency; ClosingBalance is signed by the account's normal balance
// (positive when the account sits on its normal side).
type TrialBalanceRow struct {
	AccountID      string          `json:"accountID"`
	AccountName    string          `json:"accountName"`
	AccountType    AccountType     `json:"accountType"`
	NormalBalance  EntrySide       `json:"normalBalance"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	PeriodDebit    decimal.Decimal `json:"periodDebit"`
	PeriodCredit   decimal.Decimal `json:"periodCredit"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	Debit          decimal.Decimal `json:"debit"`  // closing balance when it sits on the debit side
	Credit         decimal.Decimal `json:"credit"` // closing balance when it sits on the credit side
}

// TrialBalanceResult is the trial balance for a period.
type TrialBalanceResult struct {
	WorkplaceID       string            `json:"workplaceID"`
	From              time.Time         `json:"from"`
	To                time.Time         `json:"to"`
	BaseCurrency      string            `json:"baseCurrency"`
	DisplayCurrency   string            `json:"displayCurrency"`
	DisplayRate       decimal.Decimal   `json:"displayRate"`
	Rows              []TrialBalanceRow `json:"rows"`
	TotalDebit        decimal.Decimal   `json:"totalDebit"`
	TotalCredit       decimal.Decimal   `json:"totalCredit"`
	DebitNormalTotal  decimal.Decimal   `json:"debitNormalTotal"`  // base currency
	CreditNormalTotal decimal.Decimal   `json:"creditNormalTotal"` // base currency
	IsBalanced        bool              `json:"isBalanced"`
	JournalCount      int               `json:"journalCount"`
}

// AccountAmount represents an account with its net amount for financial reports.
type AccountAmount struct {
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"`
	NetAmount decimal.Decimal `json:"netAmount"`
}

// PAndLReport represents a profit and loss report.
type PAndLReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Currency      string          `json:"currency"`
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetProfit     decimal.Decimal `json:"netProfit"` // Total revenue minus total expenses
}

// BalanceSheetReport represents a balance sheet report.
// CurrentEarnings is the unclosed income less expenses up to the report date and is
// counted within TotalEquity.
type BalanceSheetReport struct {
	AsOf             time.Time       `json:"asOf"`
	Currency         string          `json:"currency"`
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	CurrentEarnings  decimal.Decimal `json:"currentEarnings"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	IsBalanced       bool            `json:"isBalanced"`
}
