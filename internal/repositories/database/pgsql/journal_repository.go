package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger-posting/internal/apperrors"
	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journals and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalColumns = `journal_id, workplace_id, source_type, source_reference, journal_date, description,
	base_currency, status, original_journal_id, created_at, created_by`

const lineColumns = `journal_id, line_number, account_id, debit, credit, currency_code, base_amount,
	original_currency, original_amount, exchange_rate, description, reference`

// CommitJournal saves a journal and all of its lines within a DB transaction. A reversal
// locks its original, checks that it is still POSTED and marks it REVERSED before committing.
func (r *PgxJournalRepository) CommitJournal(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Will be ignored if transaction is committed successfully
	defer r.Rollback(ctx, tx)

	// 1. Lock the original of a reversal
	if entry.OriginalJournalID != nil {
		var status string
		err := tx.QueryRow(ctx,
			`SELECT status FROM journals WHERE journal_id = $1 AND workplace_id = $2 FOR UPDATE;`,
			*entry.OriginalJournalID, entry.WorkplaceID,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("original journal %s: %w", *entry.OriginalJournalID, apperrors.ErrNotFound)
		}
		if err != nil {
			return apperrors.NewAppError(500, "failed to lock original journal", err)
		}
		if domain.JournalStatus(status) != domain.Posted {
			return fmt.Errorf("original journal %s is %s: %w", *entry.OriginalJournalID, status, apperrors.ErrConflict)
		}
	}

	// 2. Insert the journal header
	_, err = tx.Exec(ctx, `
		INSERT INTO journals (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		entry.JournalID,
		entry.WorkplaceID,
		string(entry.SourceType),
		entry.SourceReference,
		entry.JournalDate,
		entry.Description,
		entry.BaseCurrency,
		string(entry.Status),
		entry.OriginalJournalID,
		entry.CreatedAt,
		entry.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("journal for %s %s: %w", entry.SourceType, entry.SourceReference, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert journal "+entry.JournalID, err)
	}

	// 3. Insert every line in one batch
	batch := &pgx.Batch{}
	lineQuery := `INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	for _, line := range entry.Lines {
		var rate decimal.NullDecimal
		if line.ExchangeRate != nil {
			rate = decimal.NewNullDecimal(*line.ExchangeRate)
		}
		batch.Queue(lineQuery,
			entry.JournalID,
			line.LineNumber,
			line.AccountID,
			line.Debit,
			line.Credit,
			line.CurrencyCode,
			line.BaseAmount,
			line.OriginalCurrency,
			line.OriginalAmount,
			rate,
			line.Description,
			line.Reference,
		)
	}
	// Close the batch results to check for errors in each command
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for journal "+entry.JournalID, err)
	}

	// 4. Mark the original as reversed
	if entry.OriginalJournalID != nil {
		_, err = tx.Exec(ctx,
			`UPDATE journals SET status = $1 WHERE journal_id = $2;`,
			string(domain.Reversed), *entry.OriginalJournalID,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to mark journal reversed", err)
		}
	}

	return r.Commit(ctx, tx)
}

// ListPostedJournals retrieves the journals of a workplace dated on or before to, with their lines.
func (r *PgxJournalRepository) ListPostedJournals(ctx context.Context, workplaceID string, to time.Time) ([]domain.JournalEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE workplace_id = $1 AND journal_date <= $2
		ORDER BY journal_date, created_at, journal_id;`,
		workplaceID, to,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journals", err)
	}
	journals, err := pgx.CollectRows(rows, scanJournal)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan journals", err)
	}
	if err := r.attachLines(ctx, journals); err != nil {
		return nil, err
	}
	return journals, nil
}

// FindJournalByID retrieves a journal of a workplace with its lines.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, workplaceID, journalID string) (*domain.JournalEntry, error) {
	return r.findOne(ctx, `WHERE workplace_id = $1 AND journal_id = $2`, workplaceID, journalID)
}

// FindJournalBySource retrieves the journal committed for a source document.
func (r *PgxJournalRepository) FindJournalBySource(ctx context.Context, workplaceID string, sourceType domain.SourceType, sourceReference string) (*domain.JournalEntry, error) {
	return r.findOne(ctx, `WHERE workplace_id = $1 AND source_type = $2 AND source_reference = $3`,
		workplaceID, string(sourceType), sourceReference)
}

func (r *PgxJournalRepository) findOne(ctx context.Context, where string, args ...any) (*domain.JournalEntry, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+journalColumns+` FROM journals `+where+`;`, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal", err)
	}
	journal, err := pgx.CollectExactlyOneRow(rows, scanJournal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan journal", err)
	}
	journals := []domain.JournalEntry{journal}
	if err := r.attachLines(ctx, journals); err != nil {
		return nil, err
	}
	return &journals[0], nil
}

// attachLines loads the lines of all given journals in one query.
func (r *PgxJournalRepository) attachLines(ctx context.Context, journals []domain.JournalEntry) error {
	if len(journals) == 0 {
		return nil
	}
	ids := make([]string, len(journals))
	index := make(map[string]int, len(journals))
	for i, j := range journals {
		ids[i] = j.JournalID
		index[j.JournalID] = i
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT `+lineColumns+`
		FROM journal_lines
		WHERE journal_id = ANY($1)
		ORDER BY journal_id, line_number;`,
		ids,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to query journal lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var journalID string
		var line domain.JournalLine
		var rate decimal.NullDecimal
		if err := rows.Scan(
			&journalID,
			&line.LineNumber,
			&line.AccountID,
			&line.Debit,
			&line.Credit,
			&line.CurrencyCode,
			&line.BaseAmount,
			&line.OriginalCurrency,
			&line.OriginalAmount,
			&rate,
			&line.Description,
			&line.Reference,
		); err != nil {
			return apperrors.NewAppError(500, "failed to scan journal line", err)
		}
		if rate.Valid {
			exchangeRate := rate.Decimal
			line.ExchangeRate = &exchangeRate
		}
		i := index[journalID]
		journals[i].Lines = append(journals[i].Lines, line)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewAppError(500, "failed to read journal lines", err)
	}
	return nil
}

func scanJournal(row pgx.CollectableRow) (domain.JournalEntry, error) {
	var j domain.JournalEntry
	var sourceType, status string
	err := row.Scan(
		&j.JournalID,
		&j.WorkplaceID,
		&sourceType,
		&j.SourceReference,
		&j.JournalDate,
		&j.Description,
		&j.BaseCurrency,
		&status,
		&j.OriginalJournalID,
		&j.CreatedAt,
		&j.CreatedBy,
	)
	j.SourceType = domain.SourceType(sourceType)
	j.Status = domain.JournalStatus(status)
	j.Lines = []domain.JournalLine{}
	return j, err
}
