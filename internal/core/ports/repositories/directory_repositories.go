package repositories

import (
	"context"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
)

// DirectoryRepository looks up the external supplier/customer/employee
// directories. Only existence and soft-delete state are in scope; the
// directories themselves are owned by other parts of the system.
type DirectoryRepository interface {
	// EntityExists reports whether the entity is present in the directory
	// for kind, and whether it is soft-deleted.
	EntityExists(ctx context.Context, kind domain.RefKind, entityID string) (found bool, deleted bool, err error)
}
