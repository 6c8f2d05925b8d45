package pgsql

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	"github.com/sahelco/trade_ledger_app/internal/utils/pagination"
)

const ledgerEntryColumns = `entry_id, account_id, amount, reason, related_document_id, running_balance, created_at, created_by`

type PgxLedgerRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountBalancer
}

// NewPgxLedgerRepository creates a new repository for the append-only ledger.
// It collaborates with the account repository for row locking and balance
// updates so both sides of a posting live in one transaction.
func NewPgxLedgerRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountBalancer) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// PostEntries applies a batch of postings atomically: locks every target
// account, adjusts balances, and appends one ledger entry per posting with
// its running balance. Any failure rolls the whole batch back.
func (r *PgxLedgerRepository) PostEntries(ctx context.Context, postings []domain.Posting, userID string, now time.Time) ([]domain.LedgerEntry, error) {
	uniqueIDs := make([]string, 0, len(postings))
	seen := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		if _, dup := seen[p.AccountID]; !dup {
			seen[p.AccountID] = struct{}{}
			uniqueIDs = append(uniqueIDs, p.AccountID)
		}
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rbErr := r.Rollback(ctx, tx); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to rollback posting transaction", "error", rbErr)
		}
	}()

	accounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, uniqueIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range uniqueIDs {
		if accounts[id].IsDeleted {
			return nil, fmt.Errorf("%w: account %s is deleted and cannot accept postings", apperrors.ErrNotFound, id)
		}
	}

	// Running balances follow input order: when a batch hits the same
	// account twice, the second entry's running balance includes the first.
	runningBalances := make(map[string]decimal.Decimal, len(accounts))
	for id, acc := range accounts {
		runningBalances[id] = acc.CurrentBalance
	}
	deltas := make(map[string]decimal.Decimal, len(accounts))

	entries := make([]domain.LedgerEntry, 0, len(postings))
	batch := &pgx.Batch{}
	insertQuery := `
		INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, p := range postings {
		runningBalances[p.AccountID] = runningBalances[p.AccountID].Add(p.Amount)
		deltas[p.AccountID] = deltas[p.AccountID].Add(p.Amount)

		entry := domain.LedgerEntry{
			EntryID:           uuid.NewString(),
			AccountID:         p.AccountID,
			Amount:            p.Amount,
			Reason:            p.Reason,
			RelatedDocumentID: p.RelatedDocumentID,
			RunningBalance:    runningBalances[p.AccountID],
			CreatedAt:         now,
			CreatedBy:         userID,
		}
		entries = append(entries, entry)
		batch.Queue(insertQuery,
			entry.EntryID,
			entry.AccountID,
			entry.Amount,
			entry.Reason,
			entry.RelatedDocumentID,
			entry.RunningBalance,
			entry.CreatedAt,
			entry.CreatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	var insertErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && insertErr == nil {
			insertErr = translateStorageError(err, "failed to insert ledger entry for account "+entries[i].AccountID)
		}
	}
	if err := br.Close(); err != nil && insertErr == nil {
		insertErr = translateStorageError(err, "failed to close ledger entry insert batch")
	}
	if insertErr != nil {
		return nil, insertErr
	}

	if err := r.accountRepo.ApplyBalanceChangesInTx(ctx, tx, deltas, userID, now); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEntriesByAccountID retrieves the account's ledger newest-first with
// keyset pagination on (created_at, entry_id).
func (r *PgxLedgerRepository) ListEntriesByAccountID(ctx context.Context, accountID string, filter portsrepo.ListLedgerFilter) ([]domain.LedgerEntry, *string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	args := []interface{}{accountID}
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE account_id = $1`

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	if filter.NextToken != nil && *filter.NextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
		}
		args = append(args, cursorTime)
		timePlaceholder := strconv.Itoa(len(args))
		args = append(args, cursorID)
		idPlaceholder := strconv.Itoa(len(args))
		query += ` AND (created_at, entry_id) < ($` + timePlaceholder + `, $` + idPlaceholder + `)`
	}

	// Fetch one extra row to detect whether another page exists.
	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC, entry_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, translateStorageError(err, "failed to query ledger entries for account "+accountID)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(
			&e.EntryID,
			&e.AccountID,
			&e.Amount,
			&e.Reason,
			&e.RelatedDocumentID,
			&e.RunningBalance,
			&e.CreatedAt,
			&e.CreatedBy,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, translateStorageError(err, "error iterating ledger entry rows")
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		nextToken = &token
	}

	return entries, nextToken, nil
}
