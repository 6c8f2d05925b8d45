package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := NewPgxAccountRepository(dbPool)
	ledgerRepo := NewPgxLedgerRepository(dbPool, accountRepo)
	directoryRepo := NewPgxDirectoryRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:   accountRepo,
		LedgerRepo:    ledgerRepo,
		DirectoryRepo: directoryRepo,
	}
}
