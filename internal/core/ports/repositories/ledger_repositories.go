package repositories

import (
	"context"
	"time"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
)

// ListLedgerFilter narrows a ledger history query. NextToken is an opaque
// cursor from a previous page; DateFrom/DateTo bound CreatedAt inclusively.
type ListLedgerFilter struct {
	Limit     int
	NextToken *string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// LedgerRepository persists the append-only ledger.
type LedgerRepository interface {
	// PostEntries applies a batch of postings as a single all-or-nothing
	// database transaction: every target account is locked, rejected if
	// absent or soft-deleted, its balance adjusted, and one ledger entry
	// appended per posting. On any failure no balance changes and no entry
	// survives. Returns the created entries in input order.
	PostEntries(ctx context.Context, postings []domain.Posting, userID string, now time.Time) ([]domain.LedgerEntry, error)

	// ListEntriesByAccountID returns the account's ledger newest-first with
	// cursor pagination. Works for soft-deleted accounts; history is never
	// hidden.
	ListEntriesByAccountID(ctx context.Context, accountID string, filter ListLedgerFilter) ([]domain.LedgerEntry, *string, error)
}
