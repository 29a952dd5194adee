package dto

import (
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// InvoicePostingRequest is the body for validating or posting a sales invoice.
type InvoicePostingRequest struct {
	InvoiceID           string            `json:"invoiceID"`
	InvoiceNumber       string            `json:"invoiceNumber"`
	CustomerID          string            `json:"customerID"`
	InvoiceDate         Date              `json:"invoiceDate"`
	Description         string            `json:"description"`
	CurrencyCode        string            `json:"currencyCode"`
	BaseCurrency        string            `json:"baseCurrency,omitempty"`
	ExchangeRate        *decimal.Decimal  `json:"exchangeRate,omitempty"`
	ReceivableAccountID string            `json:"receivableAccountID"`
	Lines               []domain.ItemLine `json:"lines"`
}

// ToDomain builds the invoice input for a workplace, recording the actor as creator.
func (r InvoicePostingRequest) ToDomain(workplaceID, actorID string) domain.InvoiceInput {
	return domain.InvoiceInput{
		WorkplaceID:         workplaceID,
		InvoiceID:           r.InvoiceID,
		InvoiceNumber:       r.InvoiceNumber,
		CustomerID:          r.CustomerID,
		InvoiceDate:         r.InvoiceDate.Time,
		Description:         r.Description,
		CurrencyCode:        r.CurrencyCode,
		BaseCurrency:        r.BaseCurrency,
		ExchangeRate:        r.ExchangeRate,
		ReceivableAccountID: r.ReceivableAccountID,
		CreatedBy:           actorID,
		Lines:               r.Lines,
	}
}

// BillPostingRequest is the body for validating or posting a supplier bill.
type BillPostingRequest struct {
	BillID           string            `json:"billID"`
	BillNumber       string            `json:"billNumber"`
	SupplierID       string            `json:"supplierID"`
	BillDate         Date              `json:"billDate"`
	Description      string            `json:"description"`
	CurrencyCode     string            `json:"currencyCode"`
	BaseCurrency     string            `json:"baseCurrency,omitempty"`
	ExchangeRate     *decimal.Decimal  `json:"exchangeRate,omitempty"`
	PayableAccountID string            `json:"payableAccountID"`
	Lines            []domain.ItemLine `json:"lines"`
}

func (r BillPostingRequest) ToDomain(workplaceID, actorID string) domain.BillInput {
	return domain.BillInput{
		WorkplaceID:      workplaceID,
		BillID:           r.BillID,
		BillNumber:       r.BillNumber,
		SupplierID:       r.SupplierID,
		BillDate:         r.BillDate.Time,
		Description:      r.Description,
		CurrencyCode:     r.CurrencyCode,
		BaseCurrency:     r.BaseCurrency,
		ExchangeRate:     r.ExchangeRate,
		PayableAccountID: r.PayableAccountID,
		CreatedBy:        actorID,
		Lines:            r.Lines,
	}
}

// PaymentPostingRequest is the body for validating or posting a payment. The actor and
// base currency are supplied separately to the payment validator.
type PaymentPostingRequest struct {
	PaymentID             string                     `json:"paymentID"`
	Direction             domain.PaymentDirection    `json:"direction"`
	PartyID               string                     `json:"partyID"`
	PaymentDate           Date                       `json:"paymentDate"`
	Description           string                     `json:"description"`
	CurrencyCode          string                     `json:"currencyCode"`
	BaseCurrency          string                     `json:"baseCurrency,omitempty"`
	ExchangeRate          *decimal.Decimal           `json:"exchangeRate,omitempty"`
	Amount                decimal.Decimal            `json:"amount"`
	BankAccountID         string                     `json:"bankAccountID"`
	CounterpartyAccountID string                     `json:"counterpartyAccountID"`
	AdvanceAccountID      string                     `json:"advanceAccountID,omitempty"`
	Allocations           []domain.PaymentAllocation `json:"allocations"`
}

func (r PaymentPostingRequest) ToDomain(workplaceID string) domain.PaymentInput {
	return domain.PaymentInput{
		WorkplaceID:           workplaceID,
		PaymentID:             r.PaymentID,
		Direction:             r.Direction,
		PartyID:               r.PartyID,
		PaymentDate:           r.PaymentDate.Time,
		Description:           r.Description,
		CurrencyCode:          r.CurrencyCode,
		ExchangeRate:          r.ExchangeRate,
		Amount:                r.Amount,
		BankAccountID:         r.BankAccountID,
		CounterpartyAccountID: r.CounterpartyAccountID,
		AdvanceAccountID:      r.AdvanceAccountID,
		Allocations:           r.Allocations,
	}
}

// JournalPostingRequest is the body for validating or posting a manual journal.
type JournalPostingRequest struct {
	Reference    string                `json:"reference"`
	JournalDate  Date                  `json:"journalDate"`
	Description  string                `json:"description"`
	CurrencyCode string                `json:"currencyCode"`
	BaseCurrency string                `json:"baseCurrency,omitempty"`
	ExchangeRate *decimal.Decimal      `json:"exchangeRate,omitempty"`
	Lines        []domain.DocumentLine `json:"lines"`

	RoundingAccountID string `json:"roundingAccountID,omitempty"`
}

func (r JournalPostingRequest) ToDomain(workplaceID, actorID string) domain.JournalInput {
	return domain.JournalInput{
		WorkplaceID:  workplaceID,
		Reference:    r.Reference,
		JournalDate:  r.JournalDate.Time,
		Description:  r.Description,
		CurrencyCode: r.CurrencyCode,
		BaseCurrency: r.BaseCurrency,
		ExchangeRate: r.ExchangeRate,
		CreatedBy:    actorID,
		Lines:        r.Lines,

		RoundingAccountID: r.RoundingAccountID,
	}
}

// ReverseJournalRequest optionally dates a reversal. Today is used when omitted.
type ReverseJournalRequest struct {
	ReversalDate *Date `json:"reversalDate,omitempty"`
}

// PostingResponse reports a validation outcome and, for commits, the stored journal.
type PostingResponse struct {
	Status        domain.ValidationStatus `json:"status"`
	Stage         domain.PostingStage     `json:"stage"`
	Summary       *domain.PostingSummary  `json:"summary,omitempty"`
	Errors        domain.PostingErrors    `json:"errors,omitempty"`
	Journal       *domain.JournalEntry    `json:"journal,omitempty"`
	Committed     bool                    `json:"committed"`
	AlreadyPosted bool                    `json:"alreadyPosted,omitempty"`
}

// ToPostingResponse converts a validation result. When committed is non-nil it replaces the
// proposed journal, and a differing journal ID means the source document was posted earlier.
func ToPostingResponse(result domain.ValidationResult, committed *domain.JournalEntry) PostingResponse {
	resp := PostingResponse{
		Status:  result.Status,
		Stage:   result.Stage,
		Summary: result.Summary,
		Errors:  result.Errors,
		Journal: result.Journal,
	}
	if committed != nil {
		resp.Committed = true
		resp.AlreadyPosted = result.Journal != nil && committed.JournalID != result.Journal.JournalID
		resp.Journal = committed
	}
	return resp
}
