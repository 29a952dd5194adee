package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// NormalBalance returns the side on which an account of this type conventionally increases.
// Asset and Expense accounts are debit-normal; Liability, Equity and Income are credit-normal.
func (t AccountType) NormalBalance() EntrySide {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// Account represents a ledger account as seen by the posting core.
// Accounts are owned by the chart-of-accounts management outside this module and are
// treated as immutable once referenced by posted lines.
type Account struct {
	AccountID    string      `json:"accountID"`
	WorkplaceID  string      `json:"workplaceID"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	CurrencyCode string      `json:"currencyCode"`
	IsActive     bool        `json:"isActive"`
}

// NormalBalance is a shortcut for a.AccountType.NormalBalance().
func (a Account) NormalBalance() EntrySide {
	return a.AccountType.NormalBalance()
}
