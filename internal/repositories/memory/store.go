package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
)

type sourceKey struct {
	workplaceID     string
	sourceType      domain.SourceType
	sourceReference string
}

// Store is an in-process implementation of the account, exchange rate and journal
// repositories. It backs the service when no database is configured and is used in tests.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	rates    []domain.ExchangeRate
	journals map[string]domain.JournalEntry
	order    []string
	bySource map[sourceKey]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		journals: make(map[string]domain.JournalEntry),
		bySource: make(map[sourceKey]string),
	}
}

var (
	_ portsrepo.AccountRepositoryFacade      = (*Store)(nil)
	_ portsrepo.ExchangeRateRepositoryFacade = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade      = (*Store)(nil)
)

// Provider exposes the store as every repository of the application.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      s,
		ExchangeRateRepo: s,
		JournalRepo:      s,
	}
}

// SaveAccount persists a new account.
func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	if account.AccountID == "" || account.WorkplaceID == "" {
		return apperrors.NewValidationError("account ID and workplace ID are required")
	}
	if !account.AccountType.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown account type %q", account.AccountType))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
	}
	s.accounts[account.AccountID] = account
	return nil
}

// FindAccountsByIDs returns the requested accounts that belong to the workplace.
func (s *Store) FindAccountsByIDs(_ context.Context, workplaceID string, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok && account.WorkplaceID == workplaceID {
			found[id] = account
		}
	}
	return found, nil
}

// SaveExchangeRate persists a new exchange rate.
func (s *Store) SaveExchangeRate(_ context.Context, rate domain.ExchangeRate) error {
	if !rate.Rate.IsPositive() {
		return apperrors.NewValidationError("exchange rate must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append(s.rates, rate)
	return nil
}

// FindExchangeRate returns the latest rate effective on or before asOf.
func (s *Store) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.ExchangeRate
	for i := range s.rates {
		r := s.rates[i]
		if r.FromCurrencyCode != fromCurrencyCode || r.ToCurrencyCode != toCurrencyCode || r.DateEffective.After(asOf) {
			continue
		}
		if best == nil || r.DateEffective.After(best.DateEffective) {
			best = &r
		}
	}
	if best == nil {
		return nil, apperrors.ErrNotFound
	}
	found := *best
	return &found, nil
}

// CommitJournal stores the entry with all of its lines. A reversal marks its original as
// REVERSED under the same lock.
func (s *Store) CommitJournal(_ context.Context, entry domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey{entry.WorkplaceID, entry.SourceType, entry.SourceReference}
	if _, exists := s.bySource[key]; exists {
		return fmt.Errorf("journal for %s %s: %w", entry.SourceType, entry.SourceReference, apperrors.ErrDuplicate)
	}
	if _, exists := s.journals[entry.JournalID]; exists {
		return fmt.Errorf("journal %s: %w", entry.JournalID, apperrors.ErrDuplicate)
	}

	if entry.OriginalJournalID != nil {
		original, ok := s.journals[*entry.OriginalJournalID]
		if !ok || original.WorkplaceID != entry.WorkplaceID {
			return fmt.Errorf("original journal %s: %w", *entry.OriginalJournalID, apperrors.ErrNotFound)
		}
		if original.Status != domain.Posted {
			return fmt.Errorf("original journal %s is %s: %w", original.JournalID, original.Status, apperrors.ErrConflict)
		}
		original.Status = domain.Reversed
		s.journals[original.JournalID] = original
	}

	s.journals[entry.JournalID] = cloneJournal(entry)
	s.order = append(s.order, entry.JournalID)
	s.bySource[key] = entry.JournalID
	return nil
}

// ListPostedJournals returns every committed journal of the workplace dated on or before to.
func (s *Store) ListPostedJournals(_ context.Context, workplaceID string, to time.Time) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	journals := make([]domain.JournalEntry, 0)
	for _, id := range s.order {
		j := s.journals[id]
		if j.WorkplaceID == workplaceID && !j.JournalDate.After(to) {
			journals = append(journals, cloneJournal(j))
		}
	}
	sort.SliceStable(journals, func(i, k int) bool { return journals[i].JournalDate.Before(journals[k].JournalDate) })
	return journals, nil
}

// FindJournalByID retrieves a journal of the workplace.
func (s *Store) FindJournalByID(_ context.Context, workplaceID, journalID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.journals[journalID]
	if !ok || j.WorkplaceID != workplaceID {
		return nil, apperrors.ErrNotFound
	}
	found := cloneJournal(j)
	return &found, nil
}

// FindJournalBySource retrieves the journal committed for a source document.
func (s *Store) FindJournalBySource(_ context.Context, workplaceID string, sourceType domain.SourceType, sourceReference string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySource[sourceKey{workplaceID, sourceType, sourceReference}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	found := cloneJournal(s.journals[id])
	return &found, nil
}

func cloneJournal(j domain.JournalEntry) domain.JournalEntry {
	lines := make([]domain.JournalLine, len(j.Lines))
	copy(lines, j.Lines)
	j.Lines = lines
	if j.OriginalJournalID != nil {
		id := *j.OriginalJournalID
		j.OriginalJournalID = &id
	}
	return j
}
