package services

import (
	"context"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	"github.com/sahelco/trade_ledger_app/internal/dto"
)

// AccountSvc is the account entity store facade.
type AccountSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, int64, error)
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
	SoftDeleteAccount(ctx context.Context, accountID string, userID string) error
}

// ReferenceResolverSvc validates the link between an account type and its
// external entity directory.
type ReferenceResolverSvc interface {
	Resolve(ctx context.Context, accountType domain.AccountType, refID *string) (domain.Reference, error)
}
