package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/SscSPs/ledger-posting/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
workplaces:
  - workplace_id: wp-1
    accounts:
      - { id: acc-bank, name: Bank, type: ASSET, currency: MYR }
      - { id: acc-sales, name: Sales, type: INCOME, currency: MYR }
      - { id: acc-old, name: Old, type: ASSET, currency: MYR, active: false }
  - workplace_id: wp-2
    accounts:
      - { id: acc-other, name: Other tenant, type: ASSET, currency: MYR }
exchange_rates:
  - { from: USD, to: MYR, rate: "4.5", date_effective: "2024-01-01" }
  - { from: USD, to: MYR, rate: "4.7", date_effective: "2024-06-01" }
`

func loadStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.LoadFixture([]byte(fixtureYAML)))
	return store
}

func TestLoadFixture_Accounts(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	found, err := store.FindAccountsByIDs(ctx, "wp-1", []string{"acc-bank", "acc-old", "acc-other", "acc-missing"})
	require.NoError(t, err)

	assert.Len(t, found, 2)
	assert.True(t, found["acc-bank"].IsActive)
	assert.Equal(t, domain.Asset, found["acc-bank"].AccountType)
	assert.False(t, found["acc-old"].IsActive)
	assert.NotContains(t, found, "acc-other", "accounts of another workplace are not visible")
}

func TestLoadFixture_RejectsBadRate(t *testing.T) {
	store := memory.NewStore()
	err := store.LoadFixture([]byte(`
exchange_rates:
  - { from: USD, to: MYR, rate: "abc", date_effective: "2024-01-01" }
`))
	assert.Error(t, err)
}

func TestFindExchangeRate_LatestEffective(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	rate, err := store.FindExchangeRate(ctx, "USD", "MYR", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("4.5")))

	rate, err = store.FindExchangeRate(ctx, "USD", "MYR", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("4.7")))

	_, err = store.FindExchangeRate(ctx, "USD", "MYR", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = store.FindExchangeRate(ctx, "EUR", "MYR", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func journal(id, reference string, date time.Time) domain.JournalEntry {
	return domain.JournalEntry{
		JournalID:       id,
		WorkplaceID:     "wp-1",
		SourceType:      domain.SourceJournal,
		SourceReference: reference,
		JournalDate:     date,
		BaseCurrency:    "MYR",
		Status:          domain.Posted,
		Lines: []domain.JournalLine{
			{LineNumber: 1, AccountID: "acc-bank", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
			{LineNumber: 2, AccountID: "acc-sales", Debit: decimal.Zero, Credit: decimal.NewFromInt(100)},
		},
	}
}

func TestCommitJournal_IdempotentBySource(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.CommitJournal(ctx, journal("j-1", "REF-1", date)))
	err := store.CommitJournal(ctx, journal("j-2", "REF-1", date))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	found, err := store.FindJournalBySource(ctx, "wp-1", domain.SourceJournal, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, "j-1", found.JournalID)

	_, err = store.FindJournalByID(ctx, "wp-2", "j-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCommitJournal_ReversalMarksOriginal(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CommitJournal(ctx, journal("j-1", "REF-1", date)))

	originalID := "j-1"
	reversal := journal("j-rev", "j-1", date.AddDate(0, 0, 1))
	reversal.SourceType = domain.SourceReversal
	reversal.OriginalJournalID = &originalID
	require.NoError(t, store.CommitJournal(ctx, reversal))

	original, err := store.FindJournalByID(ctx, "wp-1", "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, original.Status)

	second := journal("j-rev-2", "j-1-again", date.AddDate(0, 0, 2))
	second.SourceType = domain.SourceReversal
	second.OriginalJournalID = &originalID
	assert.ErrorIs(t, store.CommitJournal(ctx, second), apperrors.ErrConflict)
}

func TestListPostedJournals_FiltersByDateAndWorkplace(t *testing.T) {
	store := loadStore(t)
	ctx := context.Background()

	require.NoError(t, store.CommitJournal(ctx, journal("j-late", "REF-2", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.CommitJournal(ctx, journal("j-early", "REF-1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))))

	journals, err := store.ListPostedJournals(ctx, "wp-1", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, journals, 2)
	assert.Equal(t, "j-early", journals[0].JournalID)

	journals, err = store.ListPostedJournals(ctx, "wp-1", time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, journals, 1)

	journals, err = store.ListPostedJournals(ctx, "wp-2", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, journals)
}
