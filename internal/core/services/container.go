package services

import (
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
)

// NewServiceContainer wires the full service graph for the HTTP layer.
func NewServiceContainer(repos portsrepo.RepositoryProvider, ledgerOptions ...LedgerOption) *portssvc.ServiceContainer {
	resolver := NewReferenceResolver(repos.DirectoryRepo)
	accountSvc := NewAccountService(repos.AccountRepo, resolver)
	ledgerSvc := NewLedgerService(repos.LedgerRepo, ledgerOptions...)
	balanceSvc := NewBalanceService(repos.AccountRepo, repos.LedgerRepo, accountSvc)

	return &portssvc.ServiceContainer{
		Account: accountSvc,
		Ledger:  ledgerSvc,
		Balance: balanceSvc,
	}
}
