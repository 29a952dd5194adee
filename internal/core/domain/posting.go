package domain

import "github.com/shopspring/decimal"

// PostingStage is the furthest stage a validation call reached.
type PostingStage string

const (
	StageReceived         PostingStage = "RECEIVED"
	StageAccountsResolved PostingStage = "ACCOUNTS_RESOLVED"
	StageLinesExpanded    PostingStage = "LINES_EXPANDED"
	StageBalanced         PostingStage = "BALANCED"
	StageValid            PostingStage = "VALID"
)

// ValidationStatus is the outcome of a validation call.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "VALID"
	StatusRejected ValidationStatus = "REJECTED"
)

// PostingSummary describes a validated journal.
type PostingSummary struct {
	LineCount   int             `json:"lineCount"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	TotalAmount decimal.Decimal `json:"totalAmount"` // economic value of the document in base currency
}

// ValidationResult is either a fully materialized journal or the complete list of errors.
// A rejected result never carries a journal.
type ValidationResult struct {
	Status  ValidationStatus `json:"status"`
	Stage   PostingStage     `json:"stage"` // last stage passed (RECEIVED when structural checks failed)
	Journal *JournalEntry    `json:"journal,omitempty"`
	Summary *PostingSummary  `json:"summary,omitempty"`
	Errors  PostingErrors    `json:"errors,omitempty"`
}

// IsValid reports whether the document was accepted.
func (r ValidationResult) IsValid() bool {
	return r.Status == StatusValid
}

// Accepted builds a VALID result with the summary derived from the journal.
func Accepted(journal *JournalEntry, totalAmount decimal.Decimal) ValidationResult {
	totalDebit, totalCredit := journal.Totals()
	return ValidationResult{
		Status:  StatusValid,
		Stage:   StageValid,
		Journal: journal,
		Summary: &PostingSummary{
			LineCount:   len(journal.Lines),
			TotalDebit:  totalDebit,
			TotalCredit: totalCredit,
			TotalAmount: totalAmount,
		},
	}
}

// Rejected builds a REJECTED result at the given stage.
func Rejected(stage PostingStage, errs PostingErrors) ValidationResult {
	return ValidationResult{
		Status: StatusRejected,
		Stage:  stage,
		Errors: errs,
	}
}
