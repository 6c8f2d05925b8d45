package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
)

const accountColumns = `account_id, account_type, ref_id, name, opening_balance, current_balance, currency_code, is_deleted, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// NewPgxAccountRepository creates a new repository for account data.
func NewPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// scanAccount reads one account row in accountColumns order.
func scanAccount(row pgx.Row) (domain.Account, error) {
	var acc domain.Account
	var refID sql.NullString

	err := row.Scan(
		&acc.AccountID,
		&acc.AccountType,
		&refID,
		&acc.Name,
		&acc.OpeningBalance,
		&acc.CurrentBalance,
		&acc.CurrencyCode,
		&acc.IsDeleted,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if refID.Valid {
		acc.RefID = &refID.String
	}
	return acc, nil
}

// SaveAccount inserts a new account. The partial unique index on
// (name, account_type) WHERE is_deleted = FALSE turns duplicates among
// live accounts into ErrConflict while freed soft-deleted names pass.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	var refID sql.NullString
	if account.RefID != nil {
		refID = sql.NullString{String: *account.RefID, Valid: true}
	}

	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.AccountType,
		refID,
		account.Name,
		account.OpeningBalance,
		account.CurrentBalance,
		account.CurrencyCode,
		account.IsDeleted,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return translateStorageError(err, fmt.Sprintf("account %q of type %s already exists or could not be saved", account.Name, account.AccountType))
	}
	return nil
}

// FindAccountByID retrieves an account by its ID. Soft-deleted accounts are
// hidden unless includeDeleted is set (historical ledger lookups).
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string, includeDeleted bool) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateStorageError(err, "failed to find account by ID "+accountID)
	}
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple non-deleted accounts by their IDs.
// Missing IDs are simply absent from the map; the caller decides whether
// that is an error.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1) AND is_deleted = FALSE;`

	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, translateStorageError(err, "failed to query accounts by IDs")
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row during batch fetch: %w", err)
		}
		accountsMap[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, translateStorageError(err, "error iterating account rows during batch fetch")
	}

	return accountsMap, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern neutralizes LIKE wildcards so a search term matches
// literally. Backslash is the Postgres default escape character.
func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

// ListAccounts retrieves a filtered, paginated list of non-deleted accounts
// ordered by name, along with the total match count before pagination.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter portsrepo.ListAccountsFilter) ([]domain.Account, int64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	whereClause := `WHERE is_deleted = FALSE`
	args := []interface{}{}
	if filter.AccountType != nil {
		args = append(args, *filter.AccountType)
		whereClause += ` AND account_type = $` + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, escapeLikePattern(filter.Search))
		whereClause += ` AND name ILIKE '%' || $` + strconv.Itoa(len(args)) + ` || '%'`
	}

	countQuery := `SELECT COUNT(*) FROM accounts ` + whereClause + `;`
	var total int64
	if err := r.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translateStorageError(err, "failed to count accounts")
	}

	args = append(args, limit)
	limitPlaceholder := strconv.Itoa(len(args))
	args = append(args, offset)
	offsetPlaceholder := strconv.Itoa(len(args))

	query := `SELECT ` + accountColumns + ` FROM accounts ` + whereClause +
		` ORDER BY name LIMIT $` + limitPlaceholder + ` OFFSET $` + offsetPlaceholder + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateStorageError(err, "failed to query accounts")
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateStorageError(err, "error iterating account rows")
	}

	return accounts, total, nil
}

// UpdateAccount updates the mutable fields of an account. Balances are
// deliberately absent from the SET list; they belong to the ledger
// repository's posting transaction.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, currency_code = $3, ref_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1 AND is_deleted = FALSE;
	`
	var refID sql.NullString
	if account.RefID != nil {
		refID = sql.NullString{String: *account.RefID, Valid: true}
	}

	cmdTag, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.CurrencyCode,
		refID,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return translateStorageError(err, "failed to update account "+account.AccountID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SoftDeleteAccount marks an account as deleted without touching its
// balance or ledger history.
func (r *PgxAccountRepository) SoftDeleteAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_deleted = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_deleted = FALSE;
	`

	cmdTag, err := r.Pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return translateStorageError(err, "failed to soft-delete account "+accountID)
	}
	if cmdTag.RowsAffected() == 0 {
		// Zero rows means either the account never existed or it was
		// already deleted; distinguish for the caller.
		_, findErr := r.FindAccountByID(ctx, accountID, true)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account state after delete attempt for %s: %w", accountID, findErr)
		}
		return fmt.Errorf("%w: account %s is already deleted", apperrors.ErrConflict, accountID)
	}
	return nil
}

// FindAccountsByIDsForUpdate retrieves accounts by IDs and locks the rows
// for the duration of tx. Fails with ErrNotFound when any requested account
// is missing. Rows are locked in account_id order so concurrent batches
// acquire locks consistently.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`

	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, translateStorageError(err, "failed to lock accounts for update")
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accountsMap[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, translateStorageError(err, "error iterating locked account rows")
	}

	if len(accountsMap) != len(accountIDs) {
		missing := []string{}
		for _, id := range accountIDs {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: could not find all posting target accounts, missing: %v", apperrors.ErrNotFound, missing)
	}

	return accountsMap, nil
}

// ApplyBalanceChangesInTx adds signed deltas to account balances within tx.
// The rows must already be locked by FindAccountsByIDsForUpdate.
func (r *PgxAccountRepository) ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error {
	if len(changes) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET current_balance = current_balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(changes))
	for accountID, delta := range changes {
		if !delta.IsZero() {
			batch.Queue(query, accountID, delta, now, userID)
			accountIDs = append(accountIDs, accountID)
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = translateStorageError(err, "failed to update balance for account "+accountIDs[i])
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: account %s vanished during balance update", apperrors.ErrNotFound, accountIDs[i])
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = translateStorageError(err, "failed to close balance update batch")
	}
	return batchErr
}
