package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/core/services"
	"github.com/SscSPs/ledger-posting/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testWorkplace = "wp-1"

// --- Mock AccountDirectory ---
type MockAccountDirectory struct {
	mock.Mock
}

var _ portsrepo.AccountDirectory = (*MockAccountDirectory)(nil)

func (m *MockAccountDirectory) FindAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, workplaceID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

// seedChart fills a store with one account of every role used by the posting tests.
func seedChart(store *memory.Store) error {
	accounts := []domain.Account{
		{AccountID: "acc-bank", Name: "Bank", AccountType: domain.Asset},
		{AccountID: "acc-ar", Name: "Accounts Receivable", AccountType: domain.Asset},
		{AccountID: "acc-supplier-adv", Name: "Supplier Advances", AccountType: domain.Asset},
		{AccountID: "acc-input-tax", Name: "Input Tax", AccountType: domain.Asset},
		{AccountID: "acc-ap", Name: "Accounts Payable", AccountType: domain.Liability},
		{AccountID: "acc-customer-adv", Name: "Customer Advances", AccountType: domain.Liability},
		{AccountID: "acc-output-tax", Name: "SST Payable", AccountType: domain.Liability},
		{AccountID: "acc-capital", Name: "Capital", AccountType: domain.Equity},
		{AccountID: "acc-sales", Name: "Sales", AccountType: domain.Income},
		{AccountID: "acc-rent", Name: "Rent", AccountType: domain.Expense},
		{AccountID: "acc-fx-rounding", Name: "FX Rounding", AccountType: domain.Expense},
	}
	ctx := context.Background()
	for _, a := range accounts {
		a.WorkplaceID = testWorkplace
		a.CurrencyCode = "MYR"
		a.IsActive = true
		if err := store.SaveAccount(ctx, a); err != nil {
			return err
		}
	}
	if err := store.SaveAccount(ctx, domain.Account{AccountID: "acc-closed", WorkplaceID: testWorkplace, Name: "Closed", AccountType: domain.Asset, CurrencyCode: "MYR"}); err != nil {
		return err
	}
	if err := store.SaveAccount(ctx, domain.Account{AccountID: "acc-foreign", WorkplaceID: "wp-2", Name: "Other tenant", AccountType: domain.Income, CurrencyCode: "MYR", IsActive: true}); err != nil {
		return err
	}
	return store.SaveExchangeRate(ctx, domain.ExchangeRate{
		FromCurrencyCode: "USD",
		ToCurrencyCode:   "MYR",
		Rate:             decimal.RequireFromString("4.5"),
		DateEffective:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
}

// --- Test Suite ---
type PostingServiceTestSuite struct {
	suite.Suite
	store   *memory.Store
	service portssvc.PostingSvcFacade
	ctx     context.Context
	date    time.Time
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	suite.Require().NoError(seedChart(suite.store))
	suite.service = services.NewPostingService(
		suite.store,
		suite.store,
		services.WithBaseCurrency("MYR"),
		services.WithAdvanceAccounts("acc-customer-adv", "acc-supplier-adv"),
		services.WithRateResolver(services.NewRateResolver(suite.store, time.Second)),
	)
	suite.ctx = context.Background()
	suite.date = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
}

func (suite *PostingServiceTestSuite) invoice(currency string, lines ...domain.ItemLine) domain.InvoiceInput {
	return domain.InvoiceInput{
		WorkplaceID:         testWorkplace,
		InvoiceID:           "inv-1",
		InvoiceNumber:       "INV-0001",
		CustomerID:          "cust-1",
		InvoiceDate:         suite.date,
		CurrencyCode:        currency,
		ReceivableAccountID: "acc-ar",
		CreatedBy:           "user-1",
		Lines:               lines,
	}
}

func item(accountID, quantity, unitPrice string) domain.ItemLine {
	return domain.ItemLine{AccountID: accountID, Quantity: dec(quantity), UnitPrice: dec(unitPrice)}
}

func (suite *PostingServiceTestSuite) payment(currency, amount string, allocations ...domain.PaymentAllocation) domain.PaymentInput {
	return domain.PaymentInput{
		WorkplaceID:           testWorkplace,
		PaymentID:             "pay-1",
		Direction:             domain.PaymentReceived,
		PartyID:               "cust-1",
		PaymentDate:           suite.date,
		CurrencyCode:          currency,
		Amount:                dec(amount),
		BankAccountID:         "acc-bank",
		CounterpartyAccountID: "acc-ar",
		Allocations:           allocations,
	}
}

func allocation(documentID, outstanding, allocated string) domain.PaymentAllocation {
	return domain.PaymentAllocation{
		DocumentID:        documentID,
		DocumentReference: "REF-" + documentID,
		OutstandingAmount: dec(outstanding),
		AllocatedAmount:   dec(allocated),
	}
}

func (suite *PostingServiceTestSuite) journal(lines ...domain.DocumentLine) domain.JournalInput {
	return domain.JournalInput{
		WorkplaceID:  testWorkplace,
		Reference:    "JV-1",
		JournalDate:  suite.date,
		Description:  "Manual adjustment",
		CurrencyCode: "MYR",
		CreatedBy:    "user-1",
		Lines:        lines,
	}
}

func debitLine(accountID, amount string) domain.DocumentLine {
	return domain.DocumentLine{AccountID: accountID, Debit: decPtr(amount)}
}

func creditLine(accountID, amount string) domain.DocumentLine {
	return domain.DocumentLine{AccountID: accountID, Credit: decPtr(amount)}
}

func (suite *PostingServiceTestSuite) requireBalanced(result domain.ValidationResult) {
	suite.Require().Equal(domain.StatusValid, result.Status, "errors: %v", result.Errors)
	suite.Require().NotNil(result.Journal)
	totalDebit, totalCredit := result.Journal.Totals()
	suite.True(totalDebit.Equal(totalCredit), "debits %s credits %s", totalDebit, totalCredit)
	suite.True(result.Summary.TotalDebit.Equal(totalDebit))
	suite.Equal(len(result.Journal.Lines), result.Summary.LineCount)
	for i, line := range result.Journal.Lines {
		suite.Equal(i+1, line.LineNumber)
		suite.NoError(line.Validate())
	}
}

// --- Invoices ---

func (suite *PostingServiceTestSuite) TestInvoice_SingleCurrency() {
	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("MYR",
		item("acc-sales", "2", "150"),
		item("acc-sales", "1", "200"),
	))

	suite.requireBalanced(result)
	suite.Equal(domain.StageValid, result.Stage)
	lines := result.Journal.Lines
	suite.Require().Len(lines, 3, "lines against the same account stay separate")
	suite.Equal("acc-ar", lines[0].AccountID)
	suite.True(lines[0].Debit.Equal(dec("500")))
	suite.True(lines[1].Credit.Equal(dec("300")))
	suite.True(lines[2].Credit.Equal(dec("200")))
	suite.True(result.Summary.TotalDebit.Equal(dec("500")))
	suite.True(result.Summary.TotalCredit.Equal(dec("500")))
	suite.True(result.Summary.TotalAmount.Equal(dec("500")))
	suite.Equal(domain.SourceInvoice, result.Journal.SourceType)
	suite.Equal("inv-1", result.Journal.SourceReference)
	suite.Equal(domain.Posted, result.Journal.Status)
	suite.Nil(lines[0].ExchangeRate)
}

func (suite *PostingServiceTestSuite) TestInvoice_ForeignCurrencySuppliedRate() {
	input := suite.invoice("USD", item("acc-sales", "1", "100"))
	input.ExchangeRate = decPtr("4.5")

	result := suite.service.ValidateInvoicePosting(suite.ctx, input)

	suite.requireBalanced(result)
	suite.True(result.Summary.TotalAmount.Equal(dec("450")))
	for _, line := range result.Journal.Lines {
		suite.Equal("MYR", line.CurrencyCode)
		suite.Equal("USD", line.OriginalCurrency)
		suite.True(line.OriginalAmount.Equal(dec("100")))
		suite.True(line.BaseAmount.Equal(dec("450")))
		suite.Require().NotNil(line.ExchangeRate)
		suite.True(line.ExchangeRate.Equal(dec("4.5")))
	}
}

func (suite *PostingServiceTestSuite) TestInvoice_ForeignCurrencyStoredRate() {
	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("USD", item("acc-sales", "3", "10")))

	suite.requireBalanced(result)
	suite.True(result.Summary.TotalAmount.Equal(dec("135")))
}

func (suite *PostingServiceTestSuite) TestInvoice_TaxSplit() {
	line := item("acc-sales", "1", "100")
	line.TaxRate = decPtr("0.06")
	line.TaxAccountID = "acc-output-tax"

	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("MYR", line))

	suite.requireBalanced(result)
	lines := result.Journal.Lines
	suite.Require().Len(lines, 3)
	suite.True(lines[0].Debit.Equal(dec("106")))
	suite.Equal("acc-sales", lines[1].AccountID)
	suite.True(lines[1].Credit.Equal(dec("100")))
	suite.Equal("acc-output-tax", lines[2].AccountID)
	suite.True(lines[2].Credit.Equal(dec("6")))
}

func (suite *PostingServiceTestSuite) TestInvoice_MissingRate() {
	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("EUR", item("acc-sales", "1", "100")))

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageAccountsResolved, result.Stage)
	suite.Nil(result.Journal)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeMissingExchangeRate, result.Errors[0].Code)
	suite.Equal("exchangeRate", result.Errors[0].Field)
}

func (suite *PostingServiceTestSuite) TestInvoice_UnknownAccountsBatched() {
	input := suite.invoice("EUR",
		item("acc-missing", "1", "100"),
		item("acc-closed", "1", "100"),
		item("acc-foreign", "1", "100"),
		item("acc-missing", "1", "50"),
	)

	result := suite.service.ValidateInvoicePosting(suite.ctx, input)

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageReceived, result.Stage)
	suite.Len(result.Errors, 4, "three account errors and the missing rate, each reported once")
	first := result.Errors.First(domain.CodeAccountNotFound)
	suite.Require().NotNil(first)
	suite.Equal("acc-missing", first.AccountID)
	suite.Equal("lines[0].accountID", first.Field)
	suite.True(result.Errors.HasCode(domain.CodeMissingExchangeRate))
	suite.True(errors.Is(first, apperrors.ErrNotFound))
}

func (suite *PostingServiceTestSuite) TestInvoice_WrongControlAccountType() {
	input := suite.invoice("MYR", item("acc-sales", "1", "100"))
	input.ReceivableAccountID = "acc-ap"

	result := suite.service.ValidateInvoicePosting(suite.ctx, input)

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("receivableAccountID", result.Errors[0].Field)
	suite.Equal("acc-ap", result.Errors[0].AccountID)
}

func (suite *PostingServiceTestSuite) TestInvoice_StructuralErrors() {
	input := suite.invoice("myr")
	input.InvoiceDate = time.Time{}

	result := suite.service.ValidateInvoicePosting(suite.ctx, input)

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageReceived, result.Stage)
	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		suite.Equal(domain.CodeValidation, e.Code)
		fields = append(fields, e.Field)
	}
	suite.Contains(fields, "currencyCode")
	suite.Contains(fields, "lines")
	suite.Contains(fields, "invoiceDate")
}

func (suite *PostingServiceTestSuite) TestInvoice_TaxRateWithoutTaxAccount() {
	line := item("acc-sales", "1", "100")
	line.TaxRate = decPtr("0.1")

	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("MYR", line))

	suite.Equal(domain.StageReceived, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("lines[0].taxAccountID", result.Errors[0].Field)
}

func (suite *PostingServiceTestSuite) TestInvoice_ZeroTotal() {
	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("MYR", item("acc-sales", "1", "0")))

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageAccountsResolved, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("lines", result.Errors[0].Field)
}

func (suite *PostingServiceTestSuite) TestInvoice_DirectoryUnavailable() {
	directory := new(MockAccountDirectory)
	directory.On("FindAccountsByIDs", mock.Anything, testWorkplace, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()
	service := services.NewPostingService(directory, nil)

	result := service.ValidateInvoicePosting(suite.ctx, suite.invoice("MYR", item("acc-sales", "1", "100")))

	suite.Equal(domain.StageReceived, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeAccountNotFound, result.Errors[0].Code)
	suite.Equal("accounts", result.Errors[0].Field)
	directory.AssertExpectations(suite.T())
}

// --- Bills ---

func (suite *PostingServiceTestSuite) TestBill_ControlLineLast() {
	line := item("acc-rent", "1", "1000")
	line.TaxRate = decPtr("0.08")
	line.TaxAccountID = "acc-input-tax"
	input := domain.BillInput{
		WorkplaceID:      testWorkplace,
		BillID:           "bill-1",
		SupplierID:       "sup-1",
		BillDate:         suite.date,
		CurrencyCode:     "MYR",
		PayableAccountID: "acc-ap",
		Lines:            []domain.ItemLine{line},
	}

	result := suite.service.ValidateBillPosting(suite.ctx, input)

	suite.requireBalanced(result)
	lines := result.Journal.Lines
	suite.Require().Len(lines, 3)
	suite.True(lines[0].Debit.Equal(dec("1000")))
	suite.True(lines[1].Debit.Equal(dec("80")))
	suite.Equal("acc-ap", lines[2].AccountID)
	suite.True(lines[2].Credit.Equal(dec("1080")))
	suite.Equal("Bill bill-1", result.Journal.Description)
}

func (suite *PostingServiceTestSuite) TestBill_PayableMustBeLiability() {
	input := domain.BillInput{
		WorkplaceID:      testWorkplace,
		BillID:           "bill-1",
		SupplierID:       "sup-1",
		BillDate:         suite.date,
		CurrencyCode:     "MYR",
		PayableAccountID: "acc-bank",
		Lines:            []domain.ItemLine{item("acc-rent", "1", "10")},
	}

	result := suite.service.ValidateBillPosting(suite.ctx, input)

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("payableAccountID", result.Errors[0].Field)
}

// --- Payments ---

func (suite *PostingServiceTestSuite) TestPayment_ForeignCurrency() {
	input := suite.payment("USD", "100", allocation("inv-1", "100", "100"))
	input.ExchangeRate = decPtr("4.5")

	result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleMember, "MYR")

	suite.requireBalanced(result)
	suite.True(result.Summary.TotalAmount.Equal(dec("450")))
	lines := result.Journal.Lines
	suite.Require().Len(lines, 2)
	suite.Equal("acc-bank", lines[0].AccountID)
	suite.True(lines[0].Debit.Equal(dec("450")))
	suite.Equal("acc-ar", lines[1].AccountID)
	suite.True(lines[1].Credit.Equal(dec("450")))
	suite.Equal("REF-inv-1", lines[1].Reference)
	suite.Equal("user-1", result.Journal.CreatedBy)
}

func (suite *PostingServiceTestSuite) TestPayment_OverpaymentGoesToAdvance() {
	input := suite.payment("MYR", "1200", allocation("inv-1", "1000", "1200"))

	result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleAdmin, "MYR")

	suite.requireBalanced(result)
	lines := result.Journal.Lines
	suite.Require().Len(lines, 3)
	suite.True(lines[0].Debit.Equal(dec("1200")))
	suite.True(lines[1].Credit.Equal(dec("1000")))
	suite.Equal("acc-customer-adv", lines[2].AccountID)
	suite.True(lines[2].Credit.Equal(dec("200")))
}

func (suite *PostingServiceTestSuite) TestPayment_UnallocatedAndSupplierDirection() {
	input := suite.payment("MYR", "500", allocation("bill-1", "300", "300"))
	input.Direction = domain.PaymentMade
	input.CounterpartyAccountID = "acc-ap"

	result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleMember, "")

	suite.requireBalanced(result)
	lines := result.Journal.Lines
	suite.Require().Len(lines, 3)
	suite.Equal("acc-bank", lines[0].AccountID)
	suite.True(lines[0].Credit.Equal(dec("500")))
	suite.True(lines[1].Debit.Equal(dec("300")))
	suite.Equal("acc-supplier-adv", lines[2].AccountID)
	suite.True(lines[2].Debit.Equal(dec("200")))
}

func (suite *PostingServiceTestSuite) TestPayment_ReadOnlyRoleRejected() {
	input := suite.payment("MYR", "100", allocation("inv-1", "100", "100"))

	result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleReadOnly, "MYR")

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageReceived, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("actorRole", result.Errors[0].Field)
}

func (suite *PostingServiceTestSuite) TestPayment_BaseCurrencyMustBeISOCode() {
	input := suite.payment("MYR", "100", allocation("inv-1", "100", "100"))

	for _, base := range []string{"myr", "ABC", "RM"} {
		result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleMember, base)

		suite.Equal(domain.StageReceived, result.Stage, base)
		suite.Require().Len(result.Errors, 1, base)
		suite.Equal("baseCurrency", result.Errors[0].Field)
		suite.Contains(result.Errors[0].Message, "ISO 4217")
	}
}

func (suite *PostingServiceTestSuite) TestInvoice_CurrencyMustBeISOCode() {
	result := suite.service.ValidateInvoicePosting(suite.ctx, suite.invoice("XXY", item("acc-sales", "1", "100")))

	suite.Equal(domain.StageReceived, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("currencyCode", result.Errors[0].Field)
	suite.Equal("must be an upper-case ISO 4217 currency code", result.Errors[0].Message)
}

func (suite *PostingServiceTestSuite) TestPayment_AllocationErrors() {
	input := suite.payment("MYR", "100",
		allocation("inv-1", "100", "80"),
		allocation("inv-1", "100", "10"),
		allocation("inv-2", "50", "60"),
	)

	result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleMember, "MYR")

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageAccountsResolved, result.Stage)
	suite.Require().Len(result.Errors, 2)
	suite.Equal("allocations[1].documentID", result.Errors[0].Field)
	exceeded := result.Errors[1]
	suite.Equal(domain.CodeAllocationError, exceeded.Code)
	suite.True(exceeded.Amounts[domain.AmountAllocated].Equal(dec("140")))
	suite.True(exceeded.Amounts[domain.AmountPayment].Equal(dec("100")))
}

func (suite *PostingServiceTestSuite) TestPayment_NoAdvanceAccount() {
	service := services.NewPostingService(suite.store, suite.store)
	input := suite.payment("MYR", "150", allocation("inv-1", "100", "100"))

	result := service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleMember, "MYR")

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeAllocationError, result.Errors[0].Code)
	suite.Equal("advanceAccountID", result.Errors[0].Field)
}

func (suite *PostingServiceTestSuite) TestPayment_PrecisionOfPaymentCurrency() {
	input := suite.payment("JPY", "100.5")
	input.ExchangeRate = decPtr("0.031")

	result := suite.service.ValidatePaymentProcessingEnhanced(suite.ctx, input, "user-1", domain.RoleMember, "MYR")

	suite.Equal(domain.StageReceived, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal("amount", result.Errors[0].Field)
}

// --- Manual journals ---

func (suite *PostingServiceTestSuite) TestJournal_Unbalanced() {
	result := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(
		debitLine("acc-bank", "1000"),
		creditLine("acc-sales", "500"),
	))

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageLinesExpanded, result.Stage)
	suite.Require().Len(result.Errors, 1)
	perr := result.Errors[0]
	suite.Equal(domain.CodeUnbalancedEntry, perr.Code)
	suite.True(perr.Amounts[domain.AmountTotalDebit].Equal(dec("1000")))
	suite.True(perr.Amounts[domain.AmountTotalCredit].Equal(dec("500")))
	suite.True(perr.Amounts[domain.AmountDelta].Equal(dec("500")))
}

func (suite *PostingServiceTestSuite) TestJournal_SingleCurrencyMustBalanceExactly() {
	result := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(
		debitLine("acc-bank", "100.01"),
		creditLine("acc-sales", "100"),
	))

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageLinesExpanded, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeUnbalancedEntry, result.Errors[0].Code)
	suite.True(result.Errors[0].Amounts[domain.AmountDelta].Equal(dec("0.01")))
}

// usdJournal debits 100 USD at 4.4444 (444.44 MYR) against a MYR credit.
func (suite *PostingServiceTestSuite) usdJournal(creditMYR string) domain.JournalInput {
	usd := debitLine("acc-bank", "100")
	usd.CurrencyCode = "USD"
	usd.ExchangeRate = decPtr("4.4444")
	return suite.journal(usd, creditLine("acc-capital", creditMYR))
}

func (suite *PostingServiceTestSuite) TestJournal_ConversionResidueGoesToRoundingAccount() {
	input := suite.usdJournal("444.45")
	input.RoundingAccountID = "acc-fx-rounding"

	result := suite.service.ValidateJournalPosting(suite.ctx, input)

	suite.requireBalanced(result)
	lines := result.Journal.Lines
	suite.Require().Len(lines, 3)
	suite.Equal("acc-fx-rounding", lines[2].AccountID)
	suite.True(lines[2].Debit.Equal(dec("0.01")))
	suite.Equal("MYR", lines[2].OriginalCurrency)
	suite.Nil(lines[2].ExchangeRate)
}

func (suite *PostingServiceTestSuite) TestJournal_ConversionResidueUsesServiceRoundingAccount() {
	svc := services.NewPostingService(suite.store, suite.store,
		services.WithBaseCurrency("MYR"),
		services.WithRoundingAccount("acc-fx-rounding"),
	)

	result := svc.ValidateJournalPosting(suite.ctx, suite.usdJournal("444.43"))

	suite.requireBalanced(result)
	suite.Require().Len(result.Journal.Lines, 3)
	suite.True(result.Journal.Lines[2].Credit.Equal(dec("0.01")))
}

func (suite *PostingServiceTestSuite) TestJournal_ConversionResidueNeedsRoundingAccount() {
	result := suite.service.ValidateJournalPosting(suite.ctx, suite.usdJournal("444.45"))

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Equal(domain.StageLinesExpanded, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeUnbalancedEntry, result.Errors[0].Code)
	suite.Contains(result.Errors[0].Message, "rounding account")
}

func (suite *PostingServiceTestSuite) TestJournal_ConversionResidueAboveTolerance() {
	input := suite.usdJournal("444.50")
	input.RoundingAccountID = "acc-fx-rounding"

	result := suite.service.ValidateJournalPosting(suite.ctx, input)

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeUnbalancedEntry, result.Errors[0].Code)
	suite.True(result.Errors[0].Amounts[domain.AmountDelta].Equal(dec("0.06")))
}

func (suite *PostingServiceTestSuite) TestJournal_RoundingAccountMustResolve() {
	input := suite.usdJournal("444.45")
	input.RoundingAccountID = "acc-closed"

	result := suite.service.ValidateJournalPosting(suite.ctx, input)

	suite.Equal(domain.StatusRejected, result.Status)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeAccountNotFound, result.Errors[0].Code)
	suite.Equal("roundingAccountID", result.Errors[0].Field)
}

func (suite *PostingServiceTestSuite) TestJournal_OneSidePerLine() {
	both := debitLine("acc-bank", "10")
	both.Credit = decPtr("10")

	result := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(
		both,
		domain.DocumentLine{AccountID: "acc-sales"},
		debitLine("acc-rent", "-5"),
		domain.DocumentLine{AccountID: "acc-rent", Debit: decPtr("0"), Credit: decPtr("5")},
	))

	suite.Equal(domain.StageReceived, result.Stage)
	suite.Require().Len(result.Errors, 4)
	suite.Equal("lines[0]", result.Errors[0].Field)
	suite.Equal("lines[1]", result.Errors[1].Field)
	suite.Equal("lines[2]", result.Errors[2].Field)
	suite.Equal("lines[3]", result.Errors[3].Field)
}

func (suite *PostingServiceTestSuite) TestJournal_LineCurrencyOverride() {
	usd := debitLine("acc-bank", "100")
	usd.CurrencyCode = "USD"
	usd.ExchangeRate = decPtr("4.4")

	result := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(usd, creditLine("acc-capital", "440")))

	suite.requireBalanced(result)
	suite.Equal("USD", result.Journal.Lines[0].OriginalCurrency)
	suite.True(result.Journal.Lines[0].Debit.Equal(dec("440")))
	suite.Nil(result.Journal.Lines[1].ExchangeRate)
}

func (suite *PostingServiceTestSuite) TestJournal_MissingRateReportedOncePerCurrency() {
	first := debitLine("acc-bank", "100")
	first.CurrencyCode = "SGD"
	second := debitLine("acc-rent", "50")
	second.CurrencyCode = "SGD"

	result := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(first, second, creditLine("acc-capital", "150")))

	suite.Equal(domain.StageAccountsResolved, result.Stage)
	suite.Require().Len(result.Errors, 1)
	suite.Equal(domain.CodeMissingExchangeRate, result.Errors[0].Code)
	suite.Equal("lines[0].exchangeRate", result.Errors[0].Field)
}

// --- Commit and reversal ---

func (suite *PostingServiceTestSuite) TestPost_IsIdempotentPerSourceDocument() {
	input := suite.invoice("MYR", item("acc-sales", "1", "100"))

	first, err := suite.service.Post(suite.ctx, suite.service.ValidateInvoicePosting(suite.ctx, input))
	suite.Require().NoError(err)

	again := suite.service.ValidateInvoicePosting(suite.ctx, input)
	suite.NotEqual(first.JournalID, again.Journal.JournalID)
	second, err := suite.service.Post(suite.ctx, again)
	suite.Require().NoError(err)
	suite.Equal(first.JournalID, second.JournalID)

	journals, err := suite.store.ListPostedJournals(suite.ctx, testWorkplace, suite.date)
	suite.Require().NoError(err)
	suite.Len(journals, 1)
}

func (suite *PostingServiceTestSuite) TestPost_RejectedResult() {
	rejected := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(
		debitLine("acc-bank", "1000"),
		creditLine("acc-sales", "500"),
	))

	entry, err := suite.service.Post(suite.ctx, rejected)

	suite.Nil(entry)
	suite.ErrorIs(err, apperrors.ErrRejected)
}

func (suite *PostingServiceTestSuite) TestPost_TamperedJournalIsRechecked() {
	result := suite.service.ValidateJournalPosting(suite.ctx, suite.journal(
		debitLine("acc-bank", "100"),
		creditLine("acc-sales", "100"),
	))
	suite.Require().True(result.IsValid())
	result.Journal.Lines[0].Debit = dec("150")

	_, err := suite.service.Post(suite.ctx, result)

	suite.ErrorIs(err, apperrors.ErrUnbalanced)
}

func (suite *PostingServiceTestSuite) TestReverseJournal() {
	posted, err := suite.service.Post(suite.ctx, suite.service.ValidateJournalPosting(suite.ctx, suite.journal(
		debitLine("acc-rent", "100"),
		creditLine("acc-bank", "100"),
	)))
	suite.Require().NoError(err)

	reversal := suite.service.ReverseJournal(suite.ctx, *posted, "user-2", suite.date.AddDate(0, 1, 0))
	suite.requireBalanced(reversal)
	suite.Equal(domain.SourceReversal, reversal.Journal.SourceType)
	suite.Equal(posted.JournalID, reversal.Journal.SourceReference)
	suite.Require().NotNil(reversal.Journal.OriginalJournalID)
	suite.Equal(posted.JournalID, *reversal.Journal.OriginalJournalID)
	suite.True(reversal.Journal.Lines[0].Credit.Equal(dec("100")))
	suite.True(reversal.Journal.Lines[1].Debit.Equal(dec("100")))

	committed, err := suite.service.Post(suite.ctx, reversal)
	suite.Require().NoError(err)

	original, err := suite.service.GetJournal(suite.ctx, testWorkplace, posted.JournalID)
	suite.Require().NoError(err)
	suite.Equal(domain.Reversed, original.Status)

	again := suite.service.ReverseJournal(suite.ctx, *original, "user-2", time.Time{})
	suite.Equal(domain.StatusRejected, again.Status)
	suite.Equal(domain.StageReceived, again.Stage)

	ofReversal := suite.service.ReverseJournal(suite.ctx, *committed, "user-2", time.Time{})
	suite.Equal(domain.StatusRejected, ofReversal.Status)
}

func (suite *PostingServiceTestSuite) TestGetJournal_NotFound() {
	_, err := suite.service.GetJournal(suite.ctx, testWorkplace, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestPostingService(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}
