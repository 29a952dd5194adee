package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/utils"
	"github.com/SscSPs/ledger-posting/internal/utils/accounting"
)

// DefaultBaseCurrency is used when neither the document nor the service names one.
const DefaultBaseCurrency = "MYR"

// postingService validates business documents into journal entries and commits them.
type postingService struct {
	BaseService
	accounts  portsrepo.AccountDirectory
	journals  portsrepo.JournalRepositoryFacade
	rates     *RateResolver
	validator *structValidator

	baseCurrency             string
	tolerance                decimal.Decimal
	customerAdvanceAccountID string
	supplierAdvanceAccountID string
	roundingAccountID        string
	now                      func() time.Time
}

// PostingServiceOption is a functional option for configuring the posting service
type PostingServiceOption func(*postingService)

// WithBaseCurrency sets the base currency used when a document does not name one.
func WithBaseCurrency(currencyCode string) PostingServiceOption {
	return func(s *postingService) {
		if currencyCode != "" {
			s.baseCurrency = currencyCode
		}
	}
}

// WithBalanceTolerance sets the largest currency conversion residue a journal may carry
// into a rounding line. Entries without converted lines must always balance exactly.
func WithBalanceTolerance(tolerance decimal.Decimal) PostingServiceOption {
	return func(s *postingService) {
		if !tolerance.IsNegative() {
			s.tolerance = tolerance
		}
	}
}

// WithAdvanceAccounts designates the accounts that receive overpayments and unallocated
// payment amounts, for customers and suppliers respectively.
func WithAdvanceAccounts(customerAdvanceAccountID, supplierAdvanceAccountID string) PostingServiceOption {
	return func(s *postingService) {
		s.customerAdvanceAccountID = customerAdvanceAccountID
		s.supplierAdvanceAccountID = supplierAdvanceAccountID
	}
}

// WithRoundingAccount designates the account that absorbs currency conversion residue
// when a journal does not name one.
func WithRoundingAccount(accountID string) PostingServiceOption {
	return func(s *postingService) {
		s.roundingAccountID = accountID
	}
}

// WithRateResolver sets how missing document rates are looked up.
func WithRateResolver(resolver *RateResolver) PostingServiceOption {
	return func(s *postingService) {
		s.rates = resolver
	}
}

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) PostingServiceOption {
	return func(s *postingService) {
		s.now = now
	}
}

// NewPostingService creates a new posting service with the provided options.
// journals may be nil for a validate-only service.
func NewPostingService(accounts portsrepo.AccountDirectory, journals portsrepo.JournalRepositoryFacade, options ...PostingServiceOption) portssvc.PostingSvcFacade {
	svc := &postingService{
		accounts:     accounts,
		journals:     journals,
		rates:        NewRateResolver(nil, DefaultRateLookupTimeout),
		validator:    newStructValidator(),
		baseCurrency: DefaultBaseCurrency,
		tolerance:    accounting.DefaultBalanceTolerance,
		now:          time.Now,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure postingService implements the PostingSvcFacade interface
var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// ValidateInvoicePosting expands a sales invoice: DR receivable with the total, CR revenue
// per line and CR tax per taxed line.
func (s *postingService) ValidateInvoicePosting(ctx context.Context, input domain.InvoiceInput) domain.ValidationResult {
	logAttrs := []any{
		slog.String("workplace_id", input.WorkplaceID),
		slog.String("invoice_id", input.InvoiceID),
	}
	baseCurrency := s.baseCurrencyFor(input.BaseCurrency)

	// Stage 1: structure
	errs := s.validator.check(input)
	if input.InvoiceDate.IsZero() {
		errs = append(errs, domain.NewValidationError("invoiceDate", "is required"))
	}
	errs = append(errs, checkItemLines(input.Lines)...)
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageReceived, errs, logAttrs...)
	}

	// Stage 2: accounts and rate, batched
	refs := []accountRef{{field: "receivableAccountID", id: input.ReceivableAccountID}}
	refs = append(refs, itemLineRefs(input.Lines)...)
	accounts, accountErrs := s.resolveAccounts(ctx, input.WorkplaceID, refs)
	accountErrs = appendIfError(accountErrs, requireAccountType(accounts, "receivableAccountID", input.ReceivableAccountID, domain.Asset))

	rate, rateErr := s.rates.Resolve(ctx, input.CurrencyCode, baseCurrency, input.InvoiceDate, input.ExchangeRate)
	if result, rejected := s.rejectStageTwo(ctx, accountErrs, withField(rateErr, "exchangeRate"), logAttrs...); rejected {
		return result
	}

	// Stage 3 and 4: conversion and expansion
	reference := firstNonEmpty(input.InvoiceNumber, input.InvoiceID)
	exp, errs := expandItemDocument(itemDocument{
		currency:         input.CurrencyCode,
		baseCurrency:     baseCurrency,
		rate:             rate,
		controlAccountID: input.ReceivableAccountID,
		controlSide:      domain.Debit,
		reference:        reference,
		lines:            input.Lines,
	})
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageAccountsResolved, errs, logAttrs...)
	}

	entry := s.newEntry(input.WorkplaceID, domain.SourceInvoice, input.InvoiceID, input.InvoiceDate,
		firstNonEmpty(input.Description, "Invoice "+reference), baseCurrency, input.CreatedBy, exp.lines)
	return s.finalize(ctx, entry, exp.totalAmount, logAttrs...)
}

// ValidateBillPosting expands a supplier bill: DR expense per line, DR input tax per taxed
// line and CR payable with the total.
func (s *postingService) ValidateBillPosting(ctx context.Context, input domain.BillInput) domain.ValidationResult {
	logAttrs := []any{
		slog.String("workplace_id", input.WorkplaceID),
		slog.String("bill_id", input.BillID),
	}
	baseCurrency := s.baseCurrencyFor(input.BaseCurrency)

	errs := s.validator.check(input)
	if input.BillDate.IsZero() {
		errs = append(errs, domain.NewValidationError("billDate", "is required"))
	}
	errs = append(errs, checkItemLines(input.Lines)...)
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageReceived, errs, logAttrs...)
	}

	refs := []accountRef{{field: "payableAccountID", id: input.PayableAccountID}}
	refs = append(refs, itemLineRefs(input.Lines)...)
	accounts, accountErrs := s.resolveAccounts(ctx, input.WorkplaceID, refs)
	accountErrs = appendIfError(accountErrs, requireAccountType(accounts, "payableAccountID", input.PayableAccountID, domain.Liability))

	rate, rateErr := s.rates.Resolve(ctx, input.CurrencyCode, baseCurrency, input.BillDate, input.ExchangeRate)
	if result, rejected := s.rejectStageTwo(ctx, accountErrs, withField(rateErr, "exchangeRate"), logAttrs...); rejected {
		return result
	}

	reference := firstNonEmpty(input.BillNumber, input.BillID)
	exp, errs := expandItemDocument(itemDocument{
		currency:         input.CurrencyCode,
		baseCurrency:     baseCurrency,
		rate:             rate,
		controlAccountID: input.PayableAccountID,
		controlSide:      domain.Credit,
		reference:        reference,
		lines:            input.Lines,
	})
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageAccountsResolved, errs, logAttrs...)
	}

	entry := s.newEntry(input.WorkplaceID, domain.SourceBill, input.BillID, input.BillDate,
		firstNonEmpty(input.Description, "Bill "+reference), baseCurrency, input.CreatedBy, exp.lines)
	return s.finalize(ctx, entry, exp.totalAmount, logAttrs...)
}

// ValidatePaymentProcessingEnhanced expands a payment with its allocations. For receipts
// the bank is debited and receivables credited; disbursements mirror that against payables.
// Overpayment and unallocated amounts go to the designated advance account.
func (s *postingService) ValidatePaymentProcessingEnhanced(ctx context.Context, input domain.PaymentInput, actorID string, actorRole domain.UserWorkplaceRole, baseCurrency string) domain.ValidationResult {
	logAttrs := []any{
		slog.String("workplace_id", input.WorkplaceID),
		slog.String("payment_id", input.PaymentID),
		slog.String("actor_id", actorID),
	}
	baseCurrency = s.baseCurrencyFor(baseCurrency)

	errs := s.validator.check(input)
	if actorID == "" {
		errs = append(errs, domain.NewValidationError("actorID", "is required"))
	}
	if !actorRole.CanPost() {
		errs = append(errs, domain.NewValidationError("actorRole", "role %q may not post payments", string(actorRole)))
	}
	errs = appendIfError(errs, s.validator.checkCurrency("baseCurrency", baseCurrency))
	if input.PaymentDate.IsZero() {
		errs = append(errs, domain.NewValidationError("paymentDate", "is required"))
	}
	if len(input.Allocations) > 0 && input.CounterpartyAccountID == "" {
		errs = append(errs, domain.NewValidationError("counterpartyAccountID", "is required when the payment has allocations"))
	}
	errs = appendIfError(errs, checkPrecision("amount", input.Amount, input.CurrencyCode))
	for i, a := range input.Allocations {
		errs = appendIfError(errs, checkPrecision(fmt.Sprintf("allocations[%d].allocatedAmount", i), a.AllocatedAmount, input.CurrencyCode))
	}
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageReceived, errs, logAttrs...)
	}

	// Allocation rules need no accounts and are batched with account and rate errors.
	split, ruleErrs := AllocatePayment(input.Amount, input.Allocations)
	advanceAccountID := s.advanceAccountFor(input)
	if len(ruleErrs) == 0 && split.Advance.IsPositive() && advanceAccountID == "" {
		ruleErrs = append(ruleErrs, domain.NewAllocationError("advanceAccountID",
			map[string]decimal.Decimal{
				domain.AmountPayment:   input.Amount,
				domain.AmountAllocated: input.Amount.Sub(split.Unallocated),
			},
			"no advance account designated for the unallocated amount %s", split.Advance.String()))
	}

	counterpartyType, advanceType := domain.Asset, domain.Liability
	if input.Direction == domain.PaymentMade {
		counterpartyType, advanceType = domain.Liability, domain.Asset
	}
	refs := []accountRef{{field: "bankAccountID", id: input.BankAccountID}}
	if len(input.Allocations) > 0 {
		refs = append(refs, accountRef{field: "counterpartyAccountID", id: input.CounterpartyAccountID})
	}
	if split.Advance.IsPositive() && advanceAccountID != "" {
		refs = append(refs, accountRef{field: "advanceAccountID", id: advanceAccountID})
	}
	accounts, accountErrs := s.resolveAccounts(ctx, input.WorkplaceID, refs)
	accountErrs = appendIfError(accountErrs, requireAccountType(accounts, "bankAccountID", input.BankAccountID, domain.Asset))
	if len(input.Allocations) > 0 {
		accountErrs = appendIfError(accountErrs, requireAccountType(accounts, "counterpartyAccountID", input.CounterpartyAccountID, counterpartyType))
	}
	if split.Advance.IsPositive() {
		accountErrs = appendIfError(accountErrs, requireAccountType(accounts, "advanceAccountID", advanceAccountID, advanceType))
	}

	rate, rateErr := s.rates.Resolve(ctx, input.CurrencyCode, baseCurrency, input.PaymentDate, input.ExchangeRate)
	stageErrs := append(ruleErrs, withField(rateErr, "exchangeRate")...)
	if result, rejected := s.rejectStageTwo(ctx, accountErrs, stageErrs, logAttrs...); rejected {
		return result
	}

	exp, errs := expandPayment(paymentDocument{
		input:            input,
		baseCurrency:     baseCurrency,
		rate:             rate,
		advanceAccountID: advanceAccountID,
		split:            split,
	})
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageAccountsResolved, errs, logAttrs...)
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Payment %s %s", input.Direction, input.PaymentID)
	}
	entry := s.newEntry(input.WorkplaceID, domain.SourcePayment, input.PaymentID, input.PaymentDate,
		description, baseCurrency, actorID, exp.lines)
	return s.finalize(ctx, entry, exp.totalAmount, logAttrs...)
}

// ValidateJournalPosting validates a manual journal. Every line carries exactly one side;
// lines may override the header currency and rate.
func (s *postingService) ValidateJournalPosting(ctx context.Context, input domain.JournalInput) domain.ValidationResult {
	logAttrs := []any{
		slog.String("workplace_id", input.WorkplaceID),
		slog.String("reference", input.Reference),
	}
	baseCurrency := s.baseCurrencyFor(input.BaseCurrency)

	errs := s.validator.check(input)
	if input.JournalDate.IsZero() {
		errs = append(errs, domain.NewValidationError("journalDate", "is required"))
	}
	for i, line := range input.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if (line.Debit != nil && line.Debit.IsNegative()) || (line.Credit != nil && line.Credit.IsNegative()) {
			errs = append(errs, domain.NewValidationError(field, "debit and credit must not be negative"))
			continue
		}
		_, amount, ok := line.Side()
		if !ok {
			errs = append(errs, domain.NewValidationError(field, "exactly one of debit or credit must be set"))
			continue
		}
		errs = appendIfError(errs, checkPrecision(field, amount, firstNonEmpty(line.CurrencyCode, input.CurrencyCode)))
	}
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageReceived, errs, logAttrs...)
	}

	refs := make([]accountRef, len(input.Lines))
	for i, line := range input.Lines {
		refs[i] = accountRef{field: fmt.Sprintf("lines[%d].accountID", i), id: line.AccountID}
	}
	_, accountErrs := s.resolveAccounts(ctx, input.WorkplaceID, refs)
	lineRates, rateErrs := s.resolveJournalRates(ctx, input, baseCurrency)
	if result, rejected := s.rejectStageTwo(ctx, accountErrs, rateErrs, logAttrs...); rejected {
		return result
	}

	exp, errs := expandJournal(input, baseCurrency, lineRates)
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageAccountsResolved, errs, logAttrs...)
	}

	entry := s.newEntry(input.WorkplaceID, domain.SourceJournal, input.Reference, input.JournalDate,
		input.Description, baseCurrency, input.CreatedBy, exp.lines)
	entry.Lines, errs = s.absorbConversionResidue(ctx, entry, input.RoundingAccountID)
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageLinesExpanded, errs, logAttrs...)
	}
	return s.finalize(ctx, entry, exp.totalAmount, logAttrs...)
}

// absorbConversionResidue posts the difference left by converting foreign-currency lines
// to the rounding account, so that the committed entry balances exactly. Differences above
// the tolerance, or in entries without converted lines, are left for finalize to reject.
func (s *postingService) absorbConversionResidue(ctx context.Context, entry *domain.JournalEntry, roundingAccountID string) ([]domain.JournalLine, domain.PostingErrors) {
	residue, perr := accounting.ConversionResidue(entry.Lines, s.tolerance)
	if perr != nil || residue.IsZero() {
		return entry.Lines, nil
	}

	roundingAccountID = firstNonEmpty(roundingAccountID, s.roundingAccountID)
	if roundingAccountID == "" {
		totalDebit, totalCredit := accounting.SumSides(entry.Lines)
		perr = domain.NewUnbalancedEntryError(totalDebit, totalCredit)
		perr.Message += "; no rounding account is configured for the conversion difference"
		return nil, domain.PostingErrors{perr}
	}
	if _, errs := s.resolveAccounts(ctx, entry.WorkplaceID, []accountRef{{field: "roundingAccountID", id: roundingAccountID}}); len(errs) > 0 {
		return nil, errs
	}

	side := domain.Credit
	if residue.IsNegative() {
		side = domain.Debit
	}
	b := &glBuilder{baseCurrency: entry.BaseCurrency, lines: entry.Lines}
	b.add(roundingAccountID, side, residue.Abs(), residue.Abs(), entry.BaseCurrency, nil,
		"Currency conversion rounding", entry.SourceReference)
	s.LogDebug(ctx, "Conversion residue posted to rounding account",
		slog.String("rounding_account_id", roundingAccountID),
		slog.String("residue", residue.String()))
	return b.lines, nil
}

// resolveJournalRates resolves one rate per line. Lines without their own rate share the
// outcome for their currency, so a failed lookup is reported once.
func (s *postingService) resolveJournalRates(ctx context.Context, input domain.JournalInput, baseCurrency string) ([]journalLineRate, domain.PostingErrors) {
	type outcome struct {
		rate   *decimal.Decimal
		failed bool
	}
	var errs domain.PostingErrors
	rates := make([]journalLineRate, len(input.Lines))
	shared := make(map[string]outcome)

	for i, line := range input.Lines {
		currency := firstNonEmpty(line.CurrencyCode, input.CurrencyCode)
		rates[i].currency = currency

		supplied, field := line.ExchangeRate, fmt.Sprintf("lines[%d].exchangeRate", i)
		if line.ExchangeRate == nil {
			if out, ok := shared[currency]; ok {
				rates[i].rate = out.rate
				continue
			}
			if currency == input.CurrencyCode {
				supplied, field = input.ExchangeRate, "exchangeRate"
			}
		}

		rate, perr := s.rates.Resolve(ctx, currency, baseCurrency, input.JournalDate, supplied)
		if line.ExchangeRate == nil {
			shared[currency] = outcome{rate: rate, failed: perr != nil}
		}
		if perr != nil {
			errs = append(errs, withField(perr, field)...)
			continue
		}
		rates[i].rate = rate
	}
	return rates, errs
}

// Post commits a VALID result. The balance is checked once more before handing the entry
// to the committer. Posting a source document that was already committed returns the
// existing journal.
func (s *postingService) Post(ctx context.Context, result domain.ValidationResult) (*domain.JournalEntry, error) {
	if !result.IsValid() || result.Journal == nil {
		return nil, fmt.Errorf("%w: only a VALID result can be posted", apperrors.ErrRejected)
	}
	if s.journals == nil {
		return nil, apperrors.NewAppError(500, "no journal committer configured", nil)
	}
	entry := *result.Journal
	if perr := accounting.ValidateJournalBalance(entry.Lines); perr != nil {
		s.LogWarn(ctx, "Refusing to post unbalanced journal", slog.String("journal_id", entry.JournalID))
		return nil, perr
	}

	err := s.journals.CommitJournal(ctx, entry)
	if errors.Is(err, apperrors.ErrDuplicate) {
		existing, findErr := s.journals.FindJournalBySource(ctx, entry.WorkplaceID, entry.SourceType, entry.SourceReference)
		if findErr != nil {
			s.LogError(ctx, findErr, "Failed to load already posted journal",
				slog.String("source_reference", entry.SourceReference))
			return nil, fmt.Errorf("failed to load already posted journal: %w", findErr)
		}
		s.LogInfo(ctx, "Source document already posted",
			slog.String("journal_id", existing.JournalID),
			slog.String("source_type", string(entry.SourceType)),
			slog.String("source_reference", entry.SourceReference))
		return existing, nil
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to commit journal",
			slog.String("journal_id", entry.JournalID),
			slog.String("workplace_id", entry.WorkplaceID))
		return nil, fmt.Errorf("failed to commit journal: %w", err)
	}

	s.LogInfo(ctx, "Journal posted",
		slog.String("journal_id", entry.JournalID),
		slog.String("workplace_id", entry.WorkplaceID),
		slog.String("source_type", string(entry.SourceType)),
		slog.Int("line_count", len(entry.Lines)))
	return &entry, nil
}

// ReverseJournal builds the mirror of a posted journal: every line keeps its account and
// amounts with debit and credit swapped. Reversals themselves cannot be reversed.
func (s *postingService) ReverseJournal(ctx context.Context, original domain.JournalEntry, actorID string, reversalDate time.Time) domain.ValidationResult {
	logAttrs := []any{
		slog.String("workplace_id", original.WorkplaceID),
		slog.String("original_journal_id", original.JournalID),
	}

	var errs domain.PostingErrors
	if original.JournalID == "" {
		errs = append(errs, domain.NewValidationError("journalID", "is required"))
	}
	if actorID == "" {
		errs = append(errs, domain.NewValidationError("actorID", "is required"))
	}
	if original.SourceType == domain.SourceReversal || original.OriginalJournalID != nil {
		errs = append(errs, domain.NewValidationError("journalID", "journal %s is itself a reversal", original.JournalID))
	}
	if original.Status == domain.Reversed {
		errs = append(errs, domain.NewValidationError("journalID", "journal %s is already reversed", original.JournalID))
	}
	if len(original.Lines) == 0 {
		errs = append(errs, domain.NewValidationError("lines", "journal %s has no lines", original.JournalID))
	}
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageReceived, errs, logAttrs...)
	}

	if reversalDate.IsZero() {
		reversalDate = s.now().UTC()
	}
	lines := make([]domain.JournalLine, len(original.Lines))
	for i, line := range original.Lines {
		reversed := line
		reversed.LineNumber = i + 1
		reversed.Debit, reversed.Credit = line.Credit, line.Debit
		if line.ExchangeRate != nil {
			rate := *line.ExchangeRate
			reversed.ExchangeRate = &rate
		}
		lines[i] = reversed
	}

	entry := s.newEntry(original.WorkplaceID, domain.SourceReversal, original.JournalID, reversalDate,
		"Reversal of "+firstNonEmpty(original.Description, original.JournalID), original.BaseCurrency, actorID, lines)
	originalID := original.JournalID
	entry.OriginalJournalID = &originalID

	totalDebit, _ := entry.Totals()
	return s.finalize(ctx, entry, totalDebit, logAttrs...)
}

// GetJournal retrieves a committed journal of a workplace.
func (s *postingService) GetJournal(ctx context.Context, workplaceID, journalID string) (*domain.JournalEntry, error) {
	if s.journals == nil {
		return nil, apperrors.NewAppError(500, "no journal reader configured", nil)
	}
	journal, err := s.journals.FindJournalByID(ctx, workplaceID, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Journal not found", slog.String("journal_id", journalID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to get journal", slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	return journal, nil
}

func (s *postingService) newEntry(workplaceID string, sourceType domain.SourceType, sourceReference string, date time.Time, description, baseCurrency, createdBy string, lines []domain.JournalLine) *domain.JournalEntry {
	return &domain.JournalEntry{
		JournalID:       uuid.NewString(),
		WorkplaceID:     workplaceID,
		SourceType:      sourceType,
		SourceReference: sourceReference,
		JournalDate:     date,
		Description:     description,
		BaseCurrency:    baseCurrency,
		Status:          domain.Posted,
		Lines:           lines,
		AuditFields: domain.AuditFields{
			CreatedAt: s.now().UTC(),
			CreatedBy: createdBy,
		},
	}
}

// finalize runs the per-line checks and the balance check, then accepts the entry.
func (s *postingService) finalize(ctx context.Context, entry *domain.JournalEntry, totalAmount decimal.Decimal, logAttrs ...any) domain.ValidationResult {
	var errs domain.PostingErrors
	for _, line := range entry.Lines {
		if err := line.Validate(); err != nil {
			errs = append(errs, domain.NewValidationError(fmt.Sprintf("lines[%d]", line.LineNumber-1), "%s", err.Error()))
		}
	}
	if len(errs) > 0 {
		return s.reject(ctx, domain.StageLinesExpanded, errs, logAttrs...)
	}
	if perr := accounting.ValidateJournalBalance(entry.Lines); perr != nil {
		return s.reject(ctx, domain.StageLinesExpanded, domain.PostingErrors{perr}, logAttrs...)
	}

	result := domain.Accepted(entry, totalAmount)
	s.LogDebug(ctx, "Posting validated",
		append(logAttrs,
			slog.String("journal_id", entry.JournalID),
			slog.Int("line_count", result.Summary.LineCount),
			slog.String("total_amount", totalAmount.String()))...)
	return result
}

func (s *postingService) reject(ctx context.Context, stage domain.PostingStage, errs domain.PostingErrors, logAttrs ...any) domain.ValidationResult {
	result := domain.Rejected(stage, errs)
	s.LogRejection(ctx, result, logAttrs...)
	return result
}

// rejectStageTwo rejects when account resolution or any independent check failed. The stage
// reached is ACCOUNTS_RESOLVED only if the accounts themselves resolved.
func (s *postingService) rejectStageTwo(ctx context.Context, accountErrs, otherErrs domain.PostingErrors, logAttrs ...any) (domain.ValidationResult, bool) {
	if len(accountErrs) == 0 && len(otherErrs) == 0 {
		return domain.ValidationResult{}, false
	}
	stage := domain.StageAccountsResolved
	if len(accountErrs) > 0 {
		stage = domain.StageReceived
	}
	errs := make(domain.PostingErrors, 0, len(accountErrs)+len(otherErrs))
	errs = append(errs, accountErrs...)
	errs = append(errs, otherErrs...)
	return s.reject(ctx, stage, errs, logAttrs...), true
}

func (s *postingService) baseCurrencyFor(documentBase string) string {
	return firstNonEmpty(documentBase, s.baseCurrency)
}

func (s *postingService) advanceAccountFor(input domain.PaymentInput) string {
	if input.AdvanceAccountID != "" {
		return input.AdvanceAccountID
	}
	if input.Direction == domain.PaymentMade {
		return s.supplierAdvanceAccountID
	}
	return s.customerAdvanceAccountID
}

// accountRef is an account id together with the input field that referenced it.
type accountRef struct {
	field string
	id    string
}

// resolveAccounts looks every referenced account up in one call and reports each missing,
// inactive or foreign account once, under the first field that referenced it.
func (s *postingService) resolveAccounts(ctx context.Context, workplaceID string, refs []accountRef) (map[string]domain.Account, domain.PostingErrors) {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.id == "" || seen[ref.id] {
			continue
		}
		seen[ref.id] = true
		ids = append(ids, ref.id)
	}
	if len(ids) == 0 {
		return map[string]domain.Account{}, nil
	}

	found, err := s.accounts.FindAccountsByIDs(ctx, workplaceID, ids)
	if err != nil {
		s.LogError(ctx, err, "Account directory lookup failed",
			slog.String("workplace_id", workplaceID),
			slog.Int("account_count", len(ids)))
		return nil, domain.PostingErrors{{
			Code:    domain.CodeAccountNotFound,
			Field:   "accounts",
			Message: "account directory unavailable",
		}}
	}

	var errs domain.PostingErrors
	reported := make(map[string]bool, len(ids))
	for _, ref := range refs {
		if ref.id == "" || reported[ref.id] {
			continue
		}
		reported[ref.id] = true
		account, ok := found[ref.id]
		switch {
		case !ok:
			errs = append(errs, domain.NewAccountNotFoundError(ref.field, ref.id, "does not exist"))
		case account.WorkplaceID != workplaceID:
			errs = append(errs, domain.NewAccountNotFoundError(ref.field, ref.id, "belongs to another workplace"))
		case !account.IsActive:
			errs = append(errs, domain.NewAccountNotFoundError(ref.field, ref.id, "is inactive"))
		}
	}
	return found, errs
}

// requireAccountType checks the type of a resolved control account. Unresolved accounts
// are already reported by resolveAccounts.
func requireAccountType(accounts map[string]domain.Account, field, accountID string, want domain.AccountType) *domain.PostingError {
	account, ok := accounts[accountID]
	if !ok || account.AccountType == want {
		return nil
	}
	perr := domain.NewValidationError(field, "account %s must be of type %s, got %s", accountID, want, account.AccountType)
	perr.AccountID = accountID
	return perr
}

func itemLineRefs(lines []domain.ItemLine) []accountRef {
	refs := make([]accountRef, 0, 2*len(lines))
	for i, line := range lines {
		refs = append(refs, accountRef{field: fmt.Sprintf("lines[%d].accountID", i), id: line.AccountID})
		if line.IsTaxed() {
			refs = append(refs, accountRef{field: fmt.Sprintf("lines[%d].taxAccountID", i), id: line.TaxAccountID})
		}
	}
	return refs
}

// checkItemLines covers the item rules the struct tags cannot express.
func checkItemLines(lines []domain.ItemLine) domain.PostingErrors {
	var errs domain.PostingErrors
	for i, line := range lines {
		if line.IsTaxed() && line.TaxAccountID == "" {
			errs = append(errs, domain.NewValidationError(fmt.Sprintf("lines[%d].taxAccountID", i), "is required when a tax rate is set"))
		}
	}
	return errs
}

// checkPrecision rejects amounts finer than the minor unit of their currency.
func checkPrecision(field string, amount decimal.Decimal, currencyCode string) *domain.PostingError {
	places := utils.CurrencyPrecision(currencyCode)
	if amount.Equal(amount.Truncate(places)) {
		return nil
	}
	return domain.NewValidationError(field, "%s has more than %d decimal places for %s", amount.String(), places, currencyCode)
}

func withField(perr *domain.PostingError, field string) domain.PostingErrors {
	if perr == nil {
		return nil
	}
	perr.Field = field
	return domain.PostingErrors{perr}
}

func appendIfError(errs domain.PostingErrors, perr *domain.PostingError) domain.PostingErrors {
	if perr == nil {
		return errs
	}
	return append(errs, perr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
