package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/dto"
	"github.com/sahelco/trade_ledger_app/internal/middleware"
)

// balanceService serves read-only views over accounts and their ledgers.
type balanceService struct {
	accountRepo portsrepo.AccountReader
	ledgerRepo  portsrepo.LedgerRepository
	accountSvc  portssvc.AccountSvc
}

// NewBalanceService creates the balance query service.
func NewBalanceService(accountRepo portsrepo.AccountReader, ledgerRepo portsrepo.LedgerRepository, accountSvc portssvc.AccountSvc) portssvc.BalanceSvc {
	return &balanceService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		accountSvc:  accountSvc,
	}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

func (s *balanceService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, domain.CurrencyCode, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID, false)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find account for balance query",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()))
		}
		return decimal.Zero, "", err
	}
	return account.CurrentBalance, account.CurrencyCode, nil
}

func (s *balanceService) GetLedger(ctx context.Context, accountID string, params dto.ListLedgerParams) ([]domain.LedgerEntry, *string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// History stays readable for soft-deleted accounts; only a truly
	// unknown ID is an error.
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID, true); err != nil {
		return nil, nil, err
	}

	if params.DateFrom != nil && params.DateTo != nil && params.DateTo.Before(*params.DateFrom) {
		return nil, nil, fmt.Errorf("%w: dateTo precedes dateFrom", apperrors.ErrValidation)
	}

	filter := portsrepo.ListLedgerFilter{
		Limit:     params.Limit,
		NextToken: params.NextToken,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
	}
	entries, nextToken, err := s.ledgerRepo.ListEntriesByAccountID(ctx, accountID, filter)
	if err != nil {
		logger.Error("Failed to list ledger entries",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to retrieve ledger for account %s: %w", accountID, err)
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	logger.Debug("Ledger entries listed",
		slog.String("account_id", accountID),
		slog.Int("count", len(entries)))
	return entries, nextToken, nil
}

func (s *balanceService) ListWithBalances(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, int64, error) {
	// CurrentBalance is part of the persisted account row, so the entity
	// store's listing already carries it.
	return s.accountSvc.ListAccounts(ctx, params)
}
