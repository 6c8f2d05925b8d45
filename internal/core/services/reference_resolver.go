package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/middleware"
)

// referenceResolver decides whether an account type requires an external
// entity reference and validates it against the matching directory.
type referenceResolver struct {
	directoryRepo portsrepo.DirectoryRepository
}

// NewReferenceResolver creates a resolver backed by the entity directories.
func NewReferenceResolver(directoryRepo portsrepo.DirectoryRepository) portssvc.ReferenceResolverSvc {
	return &referenceResolver{directoryRepo: directoryRepo}
}

var _ portssvc.ReferenceResolverSvc = (*referenceResolver)(nil)

func (r *referenceResolver) Resolve(ctx context.Context, accountType domain.AccountType, refID *string) (domain.Reference, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !accountType.IsValid() {
		return domain.Reference{}, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, accountType)
	}

	if accountType.IsSystem() {
		if refID != nil && *refID != "" {
			return domain.Reference{}, fmt.Errorf("%w: system account type %q must not carry a reference", apperrors.ErrValidation, accountType)
		}
		return domain.SystemReference(), nil
	}

	kind, _ := domain.RefKindForType(accountType)

	if refID == nil || *refID == "" {
		return domain.Reference{}, fmt.Errorf("%w: account type %q requires a refID", apperrors.ErrValidation, accountType)
	}
	if _, err := uuid.Parse(*refID); err != nil {
		return domain.Reference{}, fmt.Errorf("%w: malformed refID %q", apperrors.ErrInvalidReference, *refID)
	}

	found, deleted, err := r.directoryRepo.EntityExists(ctx, kind, *refID)
	if err != nil {
		logger.Error("Failed to look up entity directory",
			slog.String("kind", string(kind)),
			slog.String("ref_id", *refID),
			slog.String("error", err.Error()))
		return domain.Reference{}, fmt.Errorf("failed to resolve %s reference: %w", kind, err)
	}
	if !found {
		return domain.Reference{}, fmt.Errorf("%w: no %s with ID %s", apperrors.ErrInvalidReference, kind, *refID)
	}
	if deleted {
		return domain.Reference{}, fmt.Errorf("%w: %s %s is deleted", apperrors.ErrInvalidReference, kind, *refID)
	}

	return domain.Reference{Kind: kind, RefID: *refID}, nil
}
