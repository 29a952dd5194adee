package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceInput is a sales invoice submitted for posting.
// Each line credits its revenue account (and tax account when taxed); the receivable account
// is debited with the document total.
type InvoiceInput struct {
	WorkplaceID         string           `json:"workplaceID" validate:"required"`
	InvoiceID           string           `json:"invoiceID" validate:"required"`
	InvoiceNumber       string           `json:"invoiceNumber"`
	CustomerID          string           `json:"customerID" validate:"required"`
	InvoiceDate         time.Time        `json:"invoiceDate"`
	Description         string           `json:"description"`
	CurrencyCode        string           `json:"currencyCode" validate:"required,iso4217"`
	BaseCurrency        string           `json:"baseCurrency" validate:"omitempty,iso4217"`
	ExchangeRate        *decimal.Decimal `json:"exchangeRate,omitempty"`
	ReceivableAccountID string           `json:"receivableAccountID" validate:"required"`
	CreatedBy           string           `json:"createdBy"`
	Lines               []ItemLine       `json:"lines" validate:"required,min=1,dive"`
}

// BillInput is a supplier bill submitted for posting. It mirrors InvoiceInput: lines debit
// expense (and recoverable tax) accounts, the payable account is credited with the total.
type BillInput struct {
	WorkplaceID      string           `json:"workplaceID" validate:"required"`
	BillID           string           `json:"billID" validate:"required"`
	BillNumber       string           `json:"billNumber"`
	SupplierID       string           `json:"supplierID" validate:"required"`
	BillDate         time.Time        `json:"billDate"`
	Description      string           `json:"description"`
	CurrencyCode     string           `json:"currencyCode" validate:"required,iso4217"`
	BaseCurrency     string           `json:"baseCurrency" validate:"omitempty,iso4217"`
	ExchangeRate     *decimal.Decimal `json:"exchangeRate,omitempty"`
	PayableAccountID string           `json:"payableAccountID" validate:"required"`
	CreatedBy        string           `json:"createdBy"`
	Lines            []ItemLine       `json:"lines" validate:"required,min=1,dive"`
}

// ItemLine is a quantity-priced invoice or bill line with an optional tax split.
type ItemLine struct {
	Description  string           `json:"description"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice    decimal.Decimal  `json:"unitPrice" validate:"gte=0"`
	AccountID    string           `json:"accountID" validate:"required"`
	TaxRate      *decimal.Decimal `json:"taxRate,omitempty" validate:"omitempty,gte=0,lte=1"`
	TaxAccountID string           `json:"taxAccountID"`
}

// IsTaxed reports whether the line carries a positive tax rate.
func (l ItemLine) IsTaxed() bool {
	return l.TaxRate != nil && l.TaxRate.IsPositive()
}

// PaymentDirection distinguishes customer receipts from supplier disbursements.
type PaymentDirection string

const (
	PaymentReceived PaymentDirection = "RECEIVED" // from a customer, settles invoices
	PaymentMade     PaymentDirection = "MADE"     // to a supplier, settles bills
)

// PaymentInput is a payment with its allocations against open invoices or bills.
type PaymentInput struct {
	WorkplaceID           string              `json:"workplaceID" validate:"required"`
	PaymentID             string              `json:"paymentID" validate:"required"`
	Direction             PaymentDirection    `json:"direction" validate:"required,oneof=RECEIVED MADE"`
	PartyID               string              `json:"partyID" validate:"required"`
	PaymentDate           time.Time           `json:"paymentDate"`
	Description           string              `json:"description"`
	CurrencyCode          string              `json:"currencyCode" validate:"required,iso4217"`
	ExchangeRate          *decimal.Decimal    `json:"exchangeRate,omitempty"`
	Amount                decimal.Decimal     `json:"amount" validate:"gt=0"`
	BankAccountID         string              `json:"bankAccountID" validate:"required"`
	CounterpartyAccountID string              `json:"counterpartyAccountID"` // AR for receipts, AP for disbursements
	AdvanceAccountID      string              `json:"advanceAccountID"`      // overrides the designated advance account
	Allocations           []PaymentAllocation `json:"allocations" validate:"dive"`
}

// PaymentAllocation assigns part of a payment to one outstanding invoice or bill.
type PaymentAllocation struct {
	DocumentID        string          `json:"documentID" validate:"required"`
	DocumentReference string          `json:"documentReference"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	AllocatedAmount   decimal.Decimal `json:"allocatedAmount"`
}

// JournalInput is a manual journal entry with raw debit/credit lines.
type JournalInput struct {
	WorkplaceID  string           `json:"workplaceID" validate:"required"`
	Reference    string           `json:"reference" validate:"required"`
	JournalDate  time.Time        `json:"journalDate"`
	Description  string           `json:"description" validate:"required"`
	CurrencyCode string           `json:"currencyCode" validate:"required,iso4217"`
	BaseCurrency string           `json:"baseCurrency" validate:"omitempty,iso4217"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
	CreatedBy    string           `json:"createdBy"`
	Lines        []DocumentLine   `json:"lines" validate:"required,min=2,dive"`

	// RoundingAccountID receives the difference left by converting foreign-currency
	// lines. Falls back to the service's rounding account.
	RoundingAccountID string `json:"roundingAccountID,omitempty"`
}

// DocumentLine is one raw journal line. Exactly one of Debit or Credit must be set to a
// positive amount. CurrencyCode and ExchangeRate override the journal header for this line.
type DocumentLine struct {
	AccountID    string           `json:"accountID" validate:"required"`
	Debit        *decimal.Decimal `json:"debit,omitempty"`
	Credit       *decimal.Decimal `json:"credit,omitempty"`
	Description  string           `json:"description"`
	Reference    string           `json:"reference"`
	CurrencyCode string           `json:"currencyCode,omitempty" validate:"omitempty,iso4217"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
}

// Side returns the populated side and its amount. ok is false when neither or both sides
// carry a non-zero amount.
func (l DocumentLine) Side() (side EntrySide, amount decimal.Decimal, ok bool) {
	switch {
	case l.Debit != nil && l.Credit != nil:
		return "", decimal.Zero, false
	case l.Debit != nil && !l.Debit.IsZero():
		return Debit, *l.Debit, true
	case l.Credit != nil && !l.Credit.IsZero():
		return Credit, *l.Credit, true
	}
	return "", decimal.Zero, false
}
