package services

import (
	"fmt"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/SscSPs/ledger-posting/internal/utils"
	"github.com/SscSPs/ledger-posting/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// glBuilder accumulates base-currency journal lines and numbers them in insertion order.
type glBuilder struct {
	baseCurrency string
	lines        []domain.JournalLine
}

func newGLBuilder(baseCurrency string, capacity int) *glBuilder {
	return &glBuilder{baseCurrency: baseCurrency, lines: make([]domain.JournalLine, 0, capacity)}
}

// add appends one line. Lines whose base amount is zero carry no value and are dropped.
func (b *glBuilder) add(accountID string, side domain.EntrySide, baseAmount, originalAmount decimal.Decimal, originalCurrency string, rate *decimal.Decimal, description, reference string) {
	if !baseAmount.IsPositive() {
		return
	}
	line := domain.JournalLine{
		LineNumber:       len(b.lines) + 1,
		AccountID:        accountID,
		Debit:            decimal.Zero,
		Credit:           decimal.Zero,
		CurrencyCode:     b.baseCurrency,
		BaseAmount:       baseAmount,
		OriginalCurrency: originalCurrency,
		OriginalAmount:   originalAmount,
		Description:      description,
		Reference:        reference,
	}
	if originalCurrency != b.baseCurrency && rate != nil {
		r := *rate
		line.ExchangeRate = &r
	}
	if side == domain.Debit {
		line.Debit = baseAmount
	} else {
		line.Credit = baseAmount
	}
	b.lines = append(b.lines, line)
}

// TaxSplit is the net and tax portion of one item line, in document and base currency.
type TaxSplit struct {
	Net       decimal.Decimal
	Tax       decimal.Decimal
	NetBase   decimal.Decimal
	TaxBase   decimal.Decimal
	Total     decimal.Decimal // Net + Tax
	TotalBase decimal.Decimal // NetBase + TaxBase, the line's share of the control account
}

// SplitTax computes the net amount and the tax of an item line. Both are rounded in the
// document currency first and then converted to base independently, so that the control
// account receives exactly NetBase + TaxBase for the line.
func SplitTax(line domain.ItemLine, documentCurrency, baseCurrency string, rate *decimal.Decimal) (TaxSplit, *domain.PostingError) {
	net := utils.RoundToCurrency(line.Quantity.Mul(line.UnitPrice), documentCurrency)
	tax := decimal.Zero
	if line.IsTaxed() {
		tax = utils.RoundToCurrency(net.Mul(*line.TaxRate), documentCurrency)
	}

	netBase, perr := Convert(net, documentCurrency, baseCurrency, rate)
	if perr != nil {
		return TaxSplit{}, perr
	}
	taxBase, perr := Convert(tax, documentCurrency, baseCurrency, rate)
	if perr != nil {
		return TaxSplit{}, perr
	}

	return TaxSplit{
		Net:       net,
		Tax:       tax,
		NetBase:   netBase,
		TaxBase:   taxBase,
		Total:     net.Add(tax),
		TotalBase: netBase.Add(taxBase),
	}, nil
}

// itemDocument is the common shape of invoices and bills.
type itemDocument struct {
	currency         string
	baseCurrency     string
	rate             *decimal.Decimal
	controlAccountID string
	controlSide      domain.EntrySide // side of the control account; item lines take the opposite
	reference        string
	lines            []domain.ItemLine
}

// expansion is the outcome of expanding a document into GL lines.
type expansion struct {
	lines       []domain.JournalLine
	totalAmount decimal.Decimal
}

// expandItemDocument produces one control line for the document total plus one line per
// item and one per taxed item. Lines against the same account are never merged.
func expandItemDocument(doc itemDocument) (expansion, domain.PostingErrors) {
	var errs domain.PostingErrors
	itemSide := doc.controlSide.Opposite()

	splits := make([]TaxSplit, len(doc.lines))
	controlBase, controlOriginal := decimal.Zero, decimal.Zero
	for i, line := range doc.lines {
		split, perr := SplitTax(line, doc.currency, doc.baseCurrency, doc.rate)
		if perr != nil {
			perr.Field = fmt.Sprintf("lines[%d]", i)
			errs = append(errs, perr)
			continue
		}
		splits[i] = split
		controlBase = controlBase.Add(split.TotalBase)
		controlOriginal = controlOriginal.Add(split.Total)
	}
	if len(errs) > 0 {
		return expansion{}, errs
	}
	if !controlBase.IsPositive() {
		return expansion{}, domain.PostingErrors{domain.NewValidationError("lines", "document total must be greater than zero")}
	}

	b := newGLBuilder(doc.baseCurrency, 1+2*len(doc.lines))
	if doc.controlSide == domain.Debit {
		b.add(doc.controlAccountID, domain.Debit, controlBase, controlOriginal, doc.currency, doc.rate, "", doc.reference)
	}
	for i, line := range doc.lines {
		b.add(line.AccountID, itemSide, splits[i].NetBase, splits[i].Net, doc.currency, doc.rate, line.Description, doc.reference)
		if line.IsTaxed() {
			b.add(line.TaxAccountID, itemSide, splits[i].TaxBase, splits[i].Tax, doc.currency, doc.rate, taxDescription(line), doc.reference)
		}
	}
	if doc.controlSide == domain.Credit {
		b.add(doc.controlAccountID, domain.Credit, controlBase, controlOriginal, doc.currency, doc.rate, "", doc.reference)
	}

	return expansion{lines: b.lines, totalAmount: controlBase}, nil
}

func taxDescription(line domain.ItemLine) string {
	rate := line.TaxRate.Mul(decimal.NewFromInt(100))
	if line.Description == "" {
		return "Tax " + rate.String() + "%"
	}
	return fmt.Sprintf("Tax %s%% on %s", rate.String(), line.Description)
}

// PaymentSplit is how a payment amount is distributed, in payment currency.
type PaymentSplit struct {
	Applied     []decimal.Decimal // per allocation, min(allocated, outstanding)
	Excess      decimal.Decimal   // allocated beyond outstanding, summed over allocations
	Unallocated decimal.Decimal   // payment amount not allocated to any document
	Advance     decimal.Decimal   // Excess + Unallocated, routed to the advance account
}

// AllocatePayment checks the allocations of a payment and distributes its amount.
// Each allocation settles at most its document's outstanding amount; what exceeds it and
// whatever was not allocated at all becomes an advance.
func AllocatePayment(amount decimal.Decimal, allocations []domain.PaymentAllocation) (PaymentSplit, domain.PostingErrors) {
	var errs domain.PostingErrors
	split := PaymentSplit{
		Applied:     make([]decimal.Decimal, len(allocations)),
		Excess:      decimal.Zero,
		Unallocated: decimal.Zero,
		Advance:     decimal.Zero,
	}

	seen := make(map[string]int, len(allocations))
	allocated := decimal.Zero
	for i, a := range allocations {
		field := fmt.Sprintf("allocations[%d]", i)
		amounts := map[string]decimal.Decimal{
			domain.AmountAllocated:   a.AllocatedAmount,
			domain.AmountOutstanding: a.OutstandingAmount,
		}
		if first, dup := seen[a.DocumentID]; dup {
			errs = append(errs, domain.NewAllocationError(field+".documentID", amounts,
				"document %s is already allocated at allocations[%d]", a.DocumentID, first))
			continue
		}
		seen[a.DocumentID] = i

		if !a.AllocatedAmount.IsPositive() {
			errs = append(errs, domain.NewAllocationError(field+".allocatedAmount", amounts,
				"allocated amount must be greater than zero, got %s", a.AllocatedAmount.String()))
			continue
		}
		if a.OutstandingAmount.IsNegative() {
			errs = append(errs, domain.NewAllocationError(field+".outstandingAmount", amounts,
				"outstanding amount must not be negative, got %s", a.OutstandingAmount.String()))
			continue
		}

		applied := decimal.Min(a.AllocatedAmount, a.OutstandingAmount)
		split.Applied[i] = applied
		split.Excess = split.Excess.Add(a.AllocatedAmount.Sub(applied))
		allocated = allocated.Add(a.AllocatedAmount)
	}

	if allocated.GreaterThan(amount) {
		errs = append(errs, domain.NewAllocationError("allocations",
			map[string]decimal.Decimal{
				domain.AmountAllocated: allocated,
				domain.AmountPayment:   amount,
			},
			"allocations total %s exceeds the payment amount %s", allocated.String(), amount.String()))
	}
	if len(errs) > 0 {
		return PaymentSplit{}, errs
	}

	split.Unallocated = amount.Sub(allocated)
	split.Advance = split.Excess.Add(split.Unallocated)
	return split, nil
}

// paymentDocument carries everything needed to expand a payment once accounts and the
// rate are resolved.
type paymentDocument struct {
	input            domain.PaymentInput
	baseCurrency     string
	rate             *decimal.Decimal
	advanceAccountID string
	split            PaymentSplit
}

// expandPayment produces the bank line, one counterparty line per allocation and at most
// one advance line. The bank line is the sum of the converted parts so the entry balances
// exactly in base currency.
func expandPayment(doc paymentDocument) (expansion, domain.PostingErrors) {
	in := doc.input
	var errs domain.PostingErrors

	appliedBase := make([]decimal.Decimal, len(in.Allocations))
	bankBase := decimal.Zero
	for i, applied := range doc.split.Applied {
		converted, perr := Convert(applied, in.CurrencyCode, doc.baseCurrency, doc.rate)
		if perr != nil {
			perr.Field = fmt.Sprintf("allocations[%d]", i)
			errs = append(errs, perr)
			continue
		}
		appliedBase[i] = converted
		bankBase = bankBase.Add(converted)
	}
	advanceBase, perr := Convert(doc.split.Advance, in.CurrencyCode, doc.baseCurrency, doc.rate)
	if perr != nil {
		perr.Field = "amount"
		errs = append(errs, perr)
	}
	if len(errs) > 0 {
		return expansion{}, errs
	}
	bankBase = bankBase.Add(advanceBase)

	settleSide := domain.Credit // receipts credit the receivable
	if in.Direction == domain.PaymentMade {
		settleSide = domain.Debit
	}

	b := newGLBuilder(doc.baseCurrency, 2+len(in.Allocations))
	b.add(in.BankAccountID, settleSide.Opposite(), bankBase, in.Amount, in.CurrencyCode, doc.rate, in.Description, in.PaymentID)
	for i, a := range in.Allocations {
		reference := a.DocumentReference
		if reference == "" {
			reference = a.DocumentID
		}
		b.add(in.CounterpartyAccountID, settleSide, appliedBase[i], doc.split.Applied[i], in.CurrencyCode, doc.rate, "Settlement of "+reference, reference)
	}
	b.add(doc.advanceAccountID, settleSide, advanceBase, doc.split.Advance, in.CurrencyCode, doc.rate, "Advance from payment "+in.PaymentID, in.PaymentID)

	if len(b.lines) < 2 {
		return expansion{}, domain.PostingErrors{domain.NewValidationError("amount", "payment amount is too small to post in %s", doc.baseCurrency)}
	}
	return expansion{lines: b.lines, totalAmount: bankBase}, nil
}

// journalLineRate is the currency and resolved rate of one manual journal line.
type journalLineRate struct {
	currency string
	rate     *decimal.Decimal
}

// expandJournal converts each manual line to base currency independently.
func expandJournal(in domain.JournalInput, baseCurrency string, rates []journalLineRate) (expansion, domain.PostingErrors) {
	var errs domain.PostingErrors
	b := newGLBuilder(baseCurrency, len(in.Lines))
	for i, line := range in.Lines {
		side, amount, _ := line.Side()
		lr := rates[i]
		converted, perr := Convert(amount, lr.currency, baseCurrency, lr.rate)
		if perr != nil {
			perr.Field = fmt.Sprintf("lines[%d]", i)
			errs = append(errs, perr)
			continue
		}
		if !converted.IsPositive() {
			errs = append(errs, domain.NewValidationError(fmt.Sprintf("lines[%d]", i),
				"amount %s %s is zero once converted to %s", amount.String(), lr.currency, baseCurrency))
			continue
		}
		description := line.Description
		if description == "" {
			description = in.Description
		}
		b.add(line.AccountID, side, converted, amount, lr.currency, lr.rate, description, line.Reference)
	}
	if len(errs) > 0 {
		return expansion{}, errs
	}
	totalDebit, _ := accounting.SumSides(b.lines)
	return expansion{lines: b.lines, totalAmount: totalDebit}, nil
}
