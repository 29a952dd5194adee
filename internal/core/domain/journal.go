package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// SourceType names the kind of business document a journal entry was expanded from.
type SourceType string

const (
	SourceInvoice  SourceType = "INVOICE"
	SourceBill     SourceType = "BILL"
	SourcePayment  SourceType = "PAYMENT"
	SourceJournal  SourceType = "JOURNAL"
	SourceReversal SourceType = "REVERSAL"
)

// JournalEntry is a balanced set of GL lines representing one posted business event.
// It is produced once per validation call and never mutated by the core afterwards.
type JournalEntry struct {
	JournalID         string        `json:"journalID"`
	WorkplaceID       string        `json:"workplaceID"`
	SourceType        SourceType    `json:"sourceType"`
	SourceReference   string        `json:"sourceReference"`
	JournalDate       time.Time     `json:"journalDate"`
	Description       string        `json:"description"`
	BaseCurrency      string        `json:"baseCurrency"`
	Status            JournalStatus `json:"status"`
	OriginalJournalID *string       `json:"originalJournalID,omitempty"` // set on reversals
	Lines             []JournalLine `json:"lines"`
	AuditFields
}

// JournalLine is one debit-or-credit entry against one account. Debit and Credit are in the
// base currency and mutually exclusive; the Original* fields keep the document-currency view.
type JournalLine struct {
	LineNumber       int              `json:"lineNumber"`
	AccountID        string           `json:"accountID"`
	Debit            decimal.Decimal  `json:"debit"`
	Credit           decimal.Decimal  `json:"credit"`
	CurrencyCode     string           `json:"currencyCode"` // always the base currency
	BaseAmount       decimal.Decimal  `json:"baseAmount"`
	OriginalCurrency string           `json:"originalCurrency"`
	OriginalAmount   decimal.Decimal  `json:"originalAmount"`
	ExchangeRate     *decimal.Decimal `json:"exchangeRate,omitempty"`
	Description      string           `json:"description"`
	Reference        string           `json:"reference"`
}

// Side reports which column the line occupies.
func (l JournalLine) Side() EntrySide {
	if l.Debit.IsPositive() {
		return Debit
	}
	return Credit
}

// IsMultiCurrency reports whether the line was converted from a foreign currency.
func (l JournalLine) IsMultiCurrency() bool {
	return l.OriginalCurrency != "" && l.OriginalCurrency != l.CurrencyCode
}

// Validate checks the per-line invariants of a materialized GL line.
func (l JournalLine) Validate() error {
	if l.AccountID == "" {
		return fmt.Errorf("line %d: account ID is required", l.LineNumber)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("line %d: debit and credit must not be negative", l.LineNumber)
	}
	if l.Debit.IsPositive() == l.Credit.IsPositive() {
		return fmt.Errorf("line %d: exactly one of debit or credit must be positive", l.LineNumber)
	}
	if l.IsMultiCurrency() {
		if l.ExchangeRate == nil {
			return fmt.Errorf("line %d: exchange rate is required for multi-currency lines", l.LineNumber)
		}
		if !l.OriginalAmount.IsPositive() {
			return fmt.Errorf("line %d: original amount must be positive", l.LineNumber)
		}
	}
	return nil
}

// Totals returns the sum of the debit and credit columns.
func (j JournalEntry) Totals() (totalDebit, totalCredit decimal.Decimal) {
	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for _, l := range j.Lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	return totalDebit, totalCredit
}

// AccountIDs returns the distinct account ids referenced by the entry, in line order.
func (j JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(j.Lines))
	ids := make([]string, 0, len(j.Lines))
	for _, l := range j.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}
