package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ErrorCode classifies a posting failure.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeAccountNotFound     ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeMissingExchangeRate ErrorCode = "MISSING_EXCHANGE_RATE"
	CodeInvalidExchangeRate ErrorCode = "INVALID_EXCHANGE_RATE"
	CodeUnbalancedEntry     ErrorCode = "UNBALANCED_ENTRY"
	CodeAllocationError     ErrorCode = "ALLOCATION_ERROR"
)

// Keys used in PostingError.Amounts.
const (
	AmountTotalDebit  = "totalDebit"
	AmountTotalCredit = "totalCredit"
	AmountDelta       = "delta"
	AmountAllocated   = "allocated"
	AmountOutstanding = "outstanding"
	AmountPayment     = "payment"
	AmountRate        = "rate"
)

// PostingError is a structured business-rule failure. It carries enough numeric context
// for a caller to render a precise message without re-deriving anything.
type PostingError struct {
	Code      ErrorCode                  `json:"code"`
	Message   string                     `json:"message"`
	Field     string                     `json:"field,omitempty"`
	AccountID string                     `json:"accountID,omitempty"`
	Amounts   map[string]decimal.Decimal `json:"amounts,omitempty"`
}

func (e *PostingError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Field != "" {
		b.WriteString(" at ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is maps the error code onto the application sentinel errors so callers can use errors.Is.
func (e *PostingError) Is(target error) bool {
	switch e.Code {
	case CodeValidation:
		return target == apperrors.ErrValidation
	case CodeAccountNotFound:
		return target == apperrors.ErrNotFound
	case CodeMissingExchangeRate:
		return target == apperrors.ErrMissingExchangeRate
	case CodeInvalidExchangeRate:
		return target == apperrors.ErrInvalidExchangeRate
	case CodeUnbalancedEntry:
		return target == apperrors.ErrUnbalanced
	case CodeAllocationError:
		return target == apperrors.ErrAllocation
	}
	return false
}

// NewValidationError builds a field-level structural error.
func NewValidationError(field, format string, args ...any) *PostingError {
	return &PostingError{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewAccountNotFoundError names the account that could not be resolved.
func NewAccountNotFoundError(field, accountID, reason string) *PostingError {
	return &PostingError{
		Code:      CodeAccountNotFound,
		Field:     field,
		AccountID: accountID,
		Message:   fmt.Sprintf("account %s %s", accountID, reason),
	}
}

// NewMissingExchangeRateError reports that no rate is available for a currency pair.
func NewMissingExchangeRateError(field, from, to string) *PostingError {
	return &PostingError{
		Code:    CodeMissingExchangeRate,
		Field:   field,
		Message: fmt.Sprintf("no exchange rate available from %s to %s", from, to),
	}
}

// NewInvalidExchangeRateError reports a non-positive rate.
func NewInvalidExchangeRateError(field string, rate decimal.Decimal) *PostingError {
	return &PostingError{
		Code:    CodeInvalidExchangeRate,
		Field:   field,
		Message: fmt.Sprintf("exchange rate must be positive, got %s", rate.String()),
		Amounts: map[string]decimal.Decimal{AmountRate: rate},
	}
}

// NewUnbalancedEntryError carries both totals and their difference.
func NewUnbalancedEntryError(totalDebit, totalCredit decimal.Decimal) *PostingError {
	delta := totalDebit.Sub(totalCredit).Abs()
	return &PostingError{
		Code: CodeUnbalancedEntry,
		Message: fmt.Sprintf("debits %s do not equal credits %s (delta %s)",
			totalDebit.StringFixed(2), totalCredit.StringFixed(2), delta.StringFixed(2)),
		Amounts: map[string]decimal.Decimal{
			AmountTotalDebit:  totalDebit,
			AmountTotalCredit: totalCredit,
			AmountDelta:       delta,
		},
	}
}

// NewAllocationError reports an allocation inconsistent with the payment or the document.
func NewAllocationError(field string, amounts map[string]decimal.Decimal, format string, args ...any) *PostingError {
	return &PostingError{
		Code:    CodeAllocationError,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Amounts: amounts,
	}
}

// PostingErrors is an ordered batch of posting failures.
type PostingErrors []*PostingError

func (errs PostingErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasCode reports whether any error in the batch has the given code.
func (errs PostingErrors) HasCode(code ErrorCode) bool {
	return errs.First(code) != nil
}

// First returns the first error with the given code, or nil.
func (errs PostingErrors) First(code ErrorCode) *PostingError {
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	return nil
}
