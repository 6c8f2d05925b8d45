package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/dto"
	"github.com/sahelco/trade_ledger_app/internal/middleware"
)

// accountService implements the account entity store: CRUD persistence with
// validation. Balances are set once at creation; afterwards only the ledger
// posting engine may touch CurrentBalance.
type accountService struct {
	accountRepo portsrepo.AccountRepository
	resolver    portssvc.ReferenceResolverSvc
}

// NewAccountService creates the account entity store service.
func NewAccountService(accountRepo portsrepo.AccountRepository, resolver portssvc.ReferenceResolverSvc) portssvc.AccountSvc {
	return &accountService{
		accountRepo: accountRepo,
		resolver:    resolver,
	}
}

var _ portssvc.AccountSvc = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}

	currency := domain.DefaultCurrency
	if req.CurrencyCode != "" {
		currency = domain.CurrencyCode(req.CurrencyCode)
		if !currency.IsValid() {
			return nil, fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, req.CurrencyCode)
		}
	}

	ref, err := s.resolver.Resolve(ctx, req.AccountType, req.RefID)
	if err != nil {
		logger.Warn("Reference resolution failed for account creation",
			slog.String("account_type", string(req.AccountType)),
			slog.String("error", err.Error()))
		return nil, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		AccountType:    req.AccountType,
		Name:           name,
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		CurrencyCode:   currency,
		IsDeleted:      false,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if !ref.System {
		refID := ref.RefID
		account.RefID = &refID
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Duplicate account name for type",
				slog.String("name", name),
				slog.String("account_type", string(req.AccountType)))
			return nil, err
		}
		logger.Error("Failed to save account",
			slog.String("account_id", account.AccountID),
			slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("account_type", string(account.AccountType)))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID, false)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find account by ID",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	filter := portsrepo.ListAccountsFilter{
		Search: strings.TrimSpace(params.Search),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Type != "" {
		accountType := domain.AccountType(params.Type)
		if !accountType.IsValid() {
			return nil, 0, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, params.Type)
		}
		filter.AccountType = &accountType
	}

	accounts, total, err := s.accountRepo.ListAccounts(ctx, filter)
	if err != nil {
		logger.Error("Failed to list accounts", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}

	logger.Debug("Accounts listed successfully", slog.Int("count", len(accounts)), slog.Int64("total", total))
	return accounts, total, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: account name must not be empty", apperrors.ErrValidation)
		}
		account.Name = name
		updated = true
	}
	if req.CurrencyCode != nil {
		currency := domain.CurrencyCode(*req.CurrencyCode)
		if !currency.IsValid() {
			return nil, fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, *req.CurrencyCode)
		}
		account.CurrencyCode = currency
		updated = true
	}
	if req.RefID != nil {
		ref, err := s.resolver.Resolve(ctx, account.AccountType, req.RefID)
		if err != nil {
			return nil, err
		}
		if ref.System {
			account.RefID = nil
		} else {
			refID := ref.RefID
			account.RefID = &refID
		}
		updated = true
	}

	if !updated {
		logger.Debug("No fields provided for account update", slog.String("account_id", accountID))
		return account, nil
	}

	now := time.Now().UTC()
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			logger.Error("Failed to update account",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.Info("Account updated successfully", slog.String("account_id", accountID))
	return account, nil
}

func (s *accountService) SoftDeleteAccount(ctx context.Context, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	if err := s.accountRepo.SoftDeleteAccount(ctx, accountID, userID, now); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrConflict) {
			logger.Error("Failed to soft-delete account",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()))
		}
		return err
	}

	logger.Info("Account soft-deleted", slog.String("account_id", accountID))
	return nil
}
