package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// PostingValidatorSvc turns business documents into validated journal entries.
// Validation never writes anything; a rejected result carries every error found.
type PostingValidatorSvc interface {
	// ValidateInvoicePosting expands a sales invoice into receivable, revenue and tax lines.
	ValidateInvoicePosting(ctx context.Context, input domain.InvoiceInput) domain.ValidationResult

	// ValidateBillPosting expands a supplier bill into expense, input tax and payable lines.
	ValidateBillPosting(ctx context.Context, input domain.BillInput) domain.ValidationResult

	// ValidatePaymentProcessingEnhanced expands a payment and its allocations, routing any
	// overpayment to the counterparty advance account. The actor is recorded as creator.
	ValidatePaymentProcessingEnhanced(ctx context.Context, input domain.PaymentInput, actorID string, actorRole domain.UserWorkplaceRole, baseCurrency string) domain.ValidationResult

	// ValidateJournalPosting validates a manual journal entry.
	ValidateJournalPosting(ctx context.Context, input domain.JournalInput) domain.ValidationResult
}

// PostingWriterSvc commits validated journals and builds reversals.
type PostingWriterSvc interface {
	// Post commits a VALID result atomically. Posting the same source document twice
	// returns the journal committed the first time.
	Post(ctx context.Context, result domain.ValidationResult) (*domain.JournalEntry, error)

	// ReverseJournal builds the mirror entry of a posted journal. The result still has to be posted.
	ReverseJournal(ctx context.Context, original domain.JournalEntry, actorID string, reversalDate time.Time) domain.ValidationResult

	// GetJournal retrieves a committed journal of a workplace.
	GetJournal(ctx context.Context, workplaceID, journalID string) (*domain.JournalEntry, error)
}

// PostingSvcFacade combines all posting-related service interfaces
type PostingSvcFacade interface {
	PostingValidatorSvc
	PostingWriterSvc
}
