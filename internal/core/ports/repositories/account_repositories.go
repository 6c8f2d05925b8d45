package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
)

// ListAccountsFilter narrows an account listing. Zero values mean "no
// filter"; Search matches the name case-insensitively as a substring.
type ListAccountsFilter struct {
	AccountType *domain.AccountType
	Search      string
	Limit       int
	Offset      int
}

// AccountReader provides read access to accounts.
type AccountReader interface {
	// FindAccountByID returns ErrNotFound for unknown IDs and, unless
	// includeDeleted is set, for soft-deleted accounts.
	FindAccountByID(ctx context.Context, accountID string, includeDeleted bool) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
	// ListAccounts returns the matching non-deleted accounts and the total
	// match count before pagination.
	ListAccounts(ctx context.Context, filter ListAccountsFilter) ([]domain.Account, int64, error)
}

// AccountWriter mutates account records. CurrentBalance is out of its
// reach: balance changes go through the ledger repository's transaction.
type AccountWriter interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	UpdateAccount(ctx context.Context, account domain.Account) error
	SoftDeleteAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountBalancer exposes the in-transaction primitives the ledger
// repository composes into an atomic posting.
type AccountBalancer interface {
	// FindAccountsByIDsForUpdate locks the account rows for the duration of
	// tx. Fails with ErrNotFound when any requested account is missing.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)
	// ApplyBalanceChangesInTx adds each signed delta to the matching
	// account's current balance within tx.
	ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error
}

// AccountRepository is the full persistence facade for accounts.
type AccountRepository interface {
	AccountReader
	AccountWriter
	AccountBalancer
}
