package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// JournalCommitter persists validated journals.
type JournalCommitter interface {
	// CommitJournal persists the entry and all of its lines in one transaction, or nothing.
	// When the entry reverses another journal, the original is marked REVERSED in the same
	// transaction. A second commit for the same (workplace, source type, source reference)
	// returns apperrors.ErrDuplicate.
	CommitJournal(ctx context.Context, entry domain.JournalEntry) error
}

// PostedJournalReader is the query collaborator used by reporting.
type PostedJournalReader interface {
	// ListPostedJournals returns every committed journal of the workplace dated on or before
	// the given time, lines included, ordered by journal date.
	ListPostedJournals(ctx context.Context, workplaceID string, to time.Time) ([]domain.JournalEntry, error)
}

// JournalReader defines read operations for single journals
type JournalReader interface {
	// FindJournalByID retrieves a specific journal with its lines.
	FindJournalByID(ctx context.Context, workplaceID, journalID string) (*domain.JournalEntry, error)

	// FindJournalBySource retrieves the journal committed for a source document, if any.
	FindJournalBySource(ctx context.Context, workplaceID string, sourceType domain.SourceType, sourceReference string) (*domain.JournalEntry, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalCommitter
	PostedJournalReader
	JournalReader
}
