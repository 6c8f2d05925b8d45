package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	"github.com/sahelco/trade_ledger_app/internal/dto"
)

// LedgerSvc is the posting engine facade: the only writer of account
// balances.
type LedgerSvc interface {
	// Post applies a single signed movement and returns the created entry.
	Post(ctx context.Context, accountID string, amount decimal.Decimal, reason domain.PostingReason, relatedDocumentID string, userID string) (*domain.LedgerEntry, error)
	// PostMany applies a batch as one all-or-nothing unit.
	PostMany(ctx context.Context, postings []domain.Posting, userID string) ([]domain.LedgerEntry, error)
}

// BalanceSvc is the read side over accounts and their ledgers.
type BalanceSvc interface {
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, domain.CurrencyCode, error)
	GetLedger(ctx context.Context, accountID string, params dto.ListLedgerParams) ([]domain.LedgerEntry, *string, error)
	ListWithBalances(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, int64, error)
}
