package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/middleware"
)

// defaultPostRetries bounds internal retries on storage write conflicts.
const defaultPostRetries = 3

var (
	ErrNoPostings    = errors.New("posting batch must contain at least one entry")
	ErrZeroAmount    = errors.New("posting amount must be non-zero")
	ErrUnknownReason = errors.New("unknown posting reason")
)

// ledgerService is the posting engine: the only component that mutates
// account balances, always together with an appended ledger entry.
type ledgerService struct {
	ledgerRepo portsrepo.LedgerRepository
	maxRetries int
}

// LedgerOption configures the ledger service.
type LedgerOption func(*ledgerService)

// WithPostRetries overrides the bounded retry count applied on storage
// write conflicts.
func WithPostRetries(n int) LedgerOption {
	return func(s *ledgerService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewLedgerService creates the posting engine.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepository, options ...LedgerOption) portssvc.LedgerSvc {
	svc := &ledgerService{
		ledgerRepo: ledgerRepo,
		maxRetries: defaultPostRetries,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvc = (*ledgerService)(nil)

func (s *ledgerService) Post(ctx context.Context, accountID string, amount decimal.Decimal, reason domain.PostingReason, relatedDocumentID string, userID string) (*domain.LedgerEntry, error) {
	entries, err := s.PostMany(ctx, []domain.Posting{{
		AccountID:         accountID,
		Amount:            amount,
		Reason:            reason,
		RelatedDocumentID: relatedDocumentID,
	}}, userID)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

func (s *ledgerService) PostMany(ctx context.Context, postings []domain.Posting, userID string) ([]domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validatePostings(postings); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var entries []domain.LedgerEntry
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		entries, err = s.ledgerRepo.PostEntries(ctx, postings, userID, now)
		if err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrStorageConflict) {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Posting hit storage write conflict, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", s.maxRetries))
	}
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrStorageConflict) {
			logger.Error("Failed to post ledger entries",
				slog.Int("posting_count", len(postings)),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.Info("Ledger entries posted",
		slog.Int("entry_count", len(entries)))
	return entries, nil
}

// validatePostings rejects malformed batches before any storage work.
// Negative balances are allowed downstream: credit accounts (supplier debt)
// are expected to go below zero.
func validatePostings(postings []domain.Posting) error {
	if len(postings) == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrNoPostings)
	}
	for i, p := range postings {
		if _, err := uuid.Parse(p.AccountID); err != nil {
			return fmt.Errorf("%w: posting %d has malformed account ID %q", apperrors.ErrValidation, i, p.AccountID)
		}
		if p.Amount.IsZero() {
			return fmt.Errorf("%w: posting %d for account %s: %s", apperrors.ErrValidation, i, p.AccountID, ErrZeroAmount)
		}
		if !p.Reason.IsValid() {
			return fmt.Errorf("%w: posting %d: %s %q", apperrors.ErrValidation, i, ErrUnknownReason, p.Reason)
		}
	}
	return nil
}
