package accounting

import (
	"fmt"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultBalanceTolerance is the largest conversion residue, in base currency units, that may be
// absorbed by a rounding line.
var DefaultBalanceTolerance = decimal.New(1, -2)

// CalculateSignedAmount applies the correct sign to a line amount based on account type.
// This is used by both the posting core and reporting to ensure consistent accounting logic.
func CalculateSignedAmount(side domain.EntrySide, amount decimal.Decimal, accountType domain.AccountType) (decimal.Decimal, error) {
	// DEBIT to ASSET/EXPENSE -> Positive (+)
	// CREDIT to ASSET/EXPENSE -> Negative (-)
	// DEBIT to LIABILITY/EQUITY/INCOME -> Negative (-)
	// CREDIT to LIABILITY/EQUITY/INCOME -> Positive (+)
	if !accountType.IsValid() {
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
	if side == accountType.NormalBalance() {
		return amount, nil
	}
	return amount.Neg(), nil
}

// LineSignedAmount is CalculateSignedAmount for a materialized journal line.
func LineSignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	if line.Debit.IsPositive() {
		return CalculateSignedAmount(domain.Debit, line.Debit, accountType)
	}
	return CalculateSignedAmount(domain.Credit, line.Credit, accountType)
}

// SumSides returns the total debits and total credits of the lines.
func SumSides(lines []domain.JournalLine) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	return totalDebit, totalCredit
}

// ValidateJournalBalance checks that debits equal credits exactly.
// Lines are compared in aggregate only; lines against the same account are never merged.
func ValidateJournalBalance(lines []domain.JournalLine) *domain.PostingError {
	totalDebit, totalCredit := SumSides(lines)
	if !totalDebit.Equal(totalCredit) {
		return domain.NewUnbalancedEntryError(totalDebit, totalCredit)
	}
	return nil
}

// ConversionResidue returns debits minus credits when that difference can only come from
// converting foreign-currency lines to base and is no larger than tolerance. Any difference
// in an entry whose lines are all in base currency is an error.
func ConversionResidue(lines []domain.JournalLine, tolerance decimal.Decimal) (decimal.Decimal, *domain.PostingError) {
	totalDebit, totalCredit := SumSides(lines)
	residue := totalDebit.Sub(totalCredit)
	if residue.IsZero() {
		return residue, nil
	}
	if residue.Abs().GreaterThan(tolerance) || !hasConvertedLine(lines) {
		return decimal.Zero, domain.NewUnbalancedEntryError(totalDebit, totalCredit)
	}
	return residue, nil
}

func hasConvertedLine(lines []domain.JournalLine) bool {
	for _, l := range lines {
		if l.IsMultiCurrency() {
			return true
		}
	}
	return false
}
