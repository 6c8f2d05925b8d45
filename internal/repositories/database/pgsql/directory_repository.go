package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
)

// directoryTables whitelists the entity tables reference resolution may
// touch. Table names are never built from request input directly.
var directoryTables = map[domain.RefKind]string{
	domain.RefSupplier: "suppliers",
	domain.RefCustomer: "customers",
	domain.RefEmployee: "employees",
}

type PgxDirectoryRepository struct {
	BaseRepository
}

// NewPgxDirectoryRepository creates a repository over the entity directories
// (suppliers, customers, employees) that entity accounts reference.
func NewPgxDirectoryRepository(pool *pgxpool.Pool) portsrepo.DirectoryRepository {
	return &PgxDirectoryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DirectoryRepository = (*PgxDirectoryRepository)(nil)

// EntityExists checks one directory for the given entity ID and reports
// whether it exists and whether it is soft-deleted.
func (r *PgxDirectoryRepository) EntityExists(ctx context.Context, kind domain.RefKind, entityID string) (bool, bool, error) {
	table, ok := directoryTables[kind]
	if !ok {
		return false, false, fmt.Errorf("unknown entity directory %q", kind)
	}

	query := `SELECT is_deleted FROM ` + table + ` WHERE id = $1;`

	var deleted bool
	err := r.Pool.QueryRow(ctx, query, entityID).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, translateStorageError(err, "failed to look up "+string(kind)+" "+entityID)
	}
	return true, deleted, nil
}
