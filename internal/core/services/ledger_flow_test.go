package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/core/services"
	"github.com/sahelco/trade_ledger_app/internal/dto"
	"github.com/sahelco/trade_ledger_app/internal/repositories/inmemory"
)

// LedgerFlowTestSuite runs the real services against the in-memory store,
// so postings, balances, and history go through the actual write and read
// paths instead of mocks.
type LedgerFlowTestSuite struct {
	suite.Suite
	store      *inmemory.Store
	accountSvc portssvc.AccountSvc
	ledgerSvc  portssvc.LedgerSvc
	balanceSvc portssvc.BalanceSvc
	userID     string
}

func (suite *LedgerFlowTestSuite) SetupTest() {
	suite.store = inmemory.NewStore()
	resolver := services.NewReferenceResolver(suite.store)
	suite.accountSvc = services.NewAccountService(suite.store, resolver)
	suite.ledgerSvc = services.NewLedgerService(suite.store)
	suite.balanceSvc = services.NewBalanceService(suite.store, suite.store, suite.accountSvc)
	suite.userID = uuid.NewString()
}

func (suite *LedgerFlowTestSuite) createAccount(name string, accountType domain.AccountType, opening decimal.Decimal) *domain.Account {
	account, err := suite.accountSvc.CreateAccount(context.Background(), dto.CreateAccountRequest{
		Name:           name,
		AccountType:    accountType,
		OpeningBalance: opening,
	}, suite.userID)
	suite.Require().NoError(err)
	return account
}

// ledgerSum fetches the full history and adds up the signed amounts.
func (suite *LedgerFlowTestSuite) ledgerSum(accountID string) (decimal.Decimal, int) {
	entries, nextToken, err := suite.balanceSvc.GetLedger(context.Background(), accountID, dto.ListLedgerParams{Limit: 100})
	suite.Require().NoError(err)
	suite.Require().Nil(nextToken)

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum, len(entries)
}

func (suite *LedgerFlowTestSuite) TestCreateStartsAtOpeningBalanceWithEmptyLedger() {
	account := suite.createAccount("Main Cashier", domain.Cashier, decimal.NewFromInt(100))

	suite.True(account.CurrentBalance.Equal(account.OpeningBalance))

	balance, currency, err := suite.balanceSvc.GetBalance(context.Background(), account.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(100)))
	suite.Equal(domain.AFN, currency)

	sum, count := suite.ledgerSum(account.AccountID)
	suite.Zero(count)
	suite.True(sum.IsZero())
}

func (suite *LedgerFlowTestSuite) TestBalanceEqualsOpeningPlusEntrySum() {
	ctx := context.Background()
	account := suite.createAccount("Office Safe", domain.Safe, decimal.RequireFromString("1000.50"))

	_, err := suite.ledgerSvc.PostMany(ctx, []domain.Posting{
		{AccountID: account.AccountID, Amount: decimal.RequireFromString("-125.75"), Reason: domain.ReasonPurchase, RelatedDocumentID: "P-1"},
		{AccountID: account.AccountID, Amount: decimal.NewFromInt(300), Reason: domain.ReasonSale, RelatedDocumentID: "S-1"},
	}, suite.userID)
	suite.Require().NoError(err)

	_, err = suite.ledgerSvc.Post(ctx, account.AccountID, decimal.RequireFromString("-50.25"), domain.ReasonAdjustment, "", suite.userID)
	suite.Require().NoError(err)

	sum, count := suite.ledgerSum(account.AccountID)
	suite.Equal(3, count)

	balance, _, err := suite.balanceSvc.GetBalance(ctx, account.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(account.OpeningBalance.Add(sum)),
		"balance %s must equal opening %s plus entry sum %s", balance, account.OpeningBalance, sum)
	suite.True(balance.Equal(decimal.RequireFromString("1124.50")))
}

func (suite *LedgerFlowTestSuite) TestFailedBatchChangesNoBalances() {
	ctx := context.Background()
	first := suite.createAccount("Cashier A", domain.Cashier, decimal.NewFromInt(200))
	second := suite.createAccount("Cashier B", domain.Cashier, decimal.NewFromInt(50))

	_, err := suite.ledgerSvc.PostMany(ctx, []domain.Posting{
		{AccountID: first.AccountID, Amount: decimal.NewFromInt(40), Reason: domain.ReasonTransfer},
		{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(-40), Reason: domain.ReasonTransfer},
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	for _, account := range []*domain.Account{first, second} {
		balance, _, err := suite.balanceSvc.GetBalance(ctx, account.AccountID)
		suite.Require().NoError(err)
		suite.True(balance.Equal(account.OpeningBalance), "account %s balance moved after a failed batch", account.Name)

		_, count := suite.ledgerSum(account.AccountID)
		suite.Zero(count, "failed batch must leave no orphan entries")
	}
}

func (suite *LedgerFlowTestSuite) TestBatchAgainstDeletedAccountRollsBack() {
	ctx := context.Background()
	live := suite.createAccount("Live Cashier", domain.Cashier, decimal.NewFromInt(200))
	deleted := suite.createAccount("Old Cashier", domain.Cashier, decimal.NewFromInt(80))
	suite.Require().NoError(suite.accountSvc.SoftDeleteAccount(ctx, deleted.AccountID, suite.userID))

	_, err := suite.ledgerSvc.PostMany(ctx, []domain.Posting{
		{AccountID: live.AccountID, Amount: decimal.NewFromInt(25), Reason: domain.ReasonTransfer},
		{AccountID: deleted.AccountID, Amount: decimal.NewFromInt(-25), Reason: domain.ReasonTransfer},
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	balance, _, err := suite.balanceSvc.GetBalance(ctx, live.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(200)))

	_, count := suite.ledgerSum(live.AccountID)
	suite.Zero(count)
}

func (suite *LedgerFlowTestSuite) TestConcurrentPostsToSameAccountSerialize() {
	ctx := context.Background()
	account := suite.createAccount("Contended Cashier", domain.Cashier, decimal.NewFromInt(100))

	var wg sync.WaitGroup
	for _, amount := range []decimal.Decimal{decimal.NewFromInt(10), decimal.NewFromInt(-3)} {
		wg.Add(1)
		go func(amount decimal.Decimal) {
			defer wg.Done()
			_, err := suite.ledgerSvc.Post(ctx, account.AccountID, amount, domain.ReasonAdjustment, "", suite.userID)
			suite.NoError(err)
		}(amount)
	}
	wg.Wait()

	balance, _, err := suite.balanceSvc.GetBalance(ctx, account.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(107)), "lost update: balance is %s, want 107", balance)

	entries, _, err := suite.balanceSvc.GetLedger(ctx, account.AccountID, dto.ListLedgerParams{Limit: 10})
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	// Whichever post applied second carries the final running balance.
	finalSeen := false
	for _, e := range entries {
		if e.RunningBalance.Equal(decimal.NewFromInt(107)) {
			finalSeen = true
		}
	}
	suite.True(finalSeen)
}

func (suite *LedgerFlowTestSuite) TestPurchaseThenSaleScenario() {
	ctx := context.Background()
	account := suite.createAccount("Trading Cashier", domain.Cashier, decimal.NewFromInt(1000))

	_, err := suite.ledgerSvc.Post(ctx, account.AccountID, decimal.NewFromInt(-250), domain.ReasonPurchase, "PUR-77", suite.userID)
	suite.Require().NoError(err)

	balance, _, err := suite.balanceSvc.GetBalance(ctx, account.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(750)))

	entries, _, err := suite.balanceSvc.GetLedger(ctx, account.AccountID, dto.ListLedgerParams{Limit: 10})
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.True(entries[0].Amount.Equal(decimal.NewFromInt(-250)))
	suite.Equal(domain.ReasonPurchase, entries[0].Reason)

	// Entries sort newest-first on creation time; keep the two posts on
	// distinct timestamps.
	time.Sleep(2 * time.Millisecond)

	_, err = suite.ledgerSvc.Post(ctx, account.AccountID, decimal.NewFromInt(100), domain.ReasonSale, "SAL-12", suite.userID)
	suite.Require().NoError(err)

	balance, _, err = suite.balanceSvc.GetBalance(ctx, account.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(850)))

	entries, nextToken, err := suite.balanceSvc.GetLedger(ctx, account.AccountID, dto.ListLedgerParams{Limit: 10})
	suite.Require().NoError(err)
	suite.Require().Nil(nextToken)
	suite.Require().Len(entries, 2)

	suite.True(entries[0].Amount.Equal(decimal.NewFromInt(100)))
	suite.Equal(domain.ReasonSale, entries[0].Reason)
	suite.True(entries[0].RunningBalance.Equal(decimal.NewFromInt(850)))

	suite.True(entries[1].Amount.Equal(decimal.NewFromInt(-250)))
	suite.Equal(domain.ReasonPurchase, entries[1].Reason)
	suite.True(entries[1].RunningBalance.Equal(decimal.NewFromInt(750)))
}

func (suite *LedgerFlowTestSuite) TestSoftDeleteFreesNameForReuse() {
	ctx := context.Background()
	first := suite.createAccount("Cash1", domain.Cashier, decimal.Zero)

	_, err := suite.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Name:        "Cash1",
		AccountType: domain.Cashier,
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)

	suite.Require().NoError(suite.accountSvc.SoftDeleteAccount(ctx, first.AccountID, suite.userID))

	recreated, err := suite.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Name:        "Cash1",
		AccountType: domain.Cashier,
	}, suite.userID)
	suite.Require().NoError(err)
	suite.NotEqual(first.AccountID, recreated.AccountID)
}

func (suite *LedgerFlowTestSuite) TestEntityReferenceEnforcement() {
	ctx := context.Background()
	supplierID := uuid.NewString()
	suite.store.SeedEntity(domain.RefSupplier, supplierID, false)

	_, err := suite.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Name:        "Karim Supplies",
		AccountType: domain.Supplier,
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)

	refID := uuid.NewString()
	_, err = suite.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Name:        "Unknown Supplier",
		AccountType: domain.Supplier,
		RefID:       &refID,
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidReference)

	account, err := suite.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Name:        "Karim Supplies",
		AccountType: domain.Supplier,
		RefID:       &supplierID,
	}, suite.userID)
	suite.Require().NoError(err)
	suite.Require().NotNil(account.RefID)
	suite.Equal(supplierID, *account.RefID)

	anyRef := uuid.NewString()
	_, err = suite.accountSvc.CreateAccount(ctx, dto.CreateAccountRequest{
		Name:        "Drawer",
		AccountType: domain.Cashier,
		RefID:       &anyRef,
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerFlowTestSuite) TestLedgerHistoryPaginatesWithCursor() {
	ctx := context.Background()
	account := suite.createAccount("Busy Cashier", domain.Cashier, decimal.Zero)

	for i := 1; i <= 5; i++ {
		_, err := suite.ledgerSvc.Post(ctx, account.AccountID, decimal.NewFromInt(int64(i)), domain.ReasonAdjustment, "", suite.userID)
		suite.Require().NoError(err)
		time.Sleep(time.Millisecond)
	}

	seen := []decimal.Decimal{}
	var token *string
	for page := 0; page < 3; page++ {
		entries, nextToken, err := suite.balanceSvc.GetLedger(ctx, account.AccountID, dto.ListLedgerParams{Limit: 2, NextToken: token})
		suite.Require().NoError(err)
		for _, e := range entries {
			seen = append(seen, e.Amount)
		}
		token = nextToken
		if token == nil {
			break
		}
	}

	suite.Nil(token)
	suite.Require().Len(seen, 5)
	for i, want := range []int64{5, 4, 3, 2, 1} {
		suite.True(seen[i].Equal(decimal.NewFromInt(want)), "page order wrong at %d: got %s", i, seen[i])
	}
}

func TestLedgerFlowTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerFlowTestSuite))
}
