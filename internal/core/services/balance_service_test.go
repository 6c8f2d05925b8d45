package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/core/services"
	"github.com/sahelco/trade_ledger_app/internal/dto"
)

type BalanceServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockLedgerRepo  *MockLedgerRepository
	mockAccountSvc  *MockAccountSvc
	service         portssvc.BalanceSvc
}

func (suite *BalanceServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountSvc = new(MockAccountSvc)
	suite.service = services.NewBalanceService(suite.mockAccountRepo, suite.mockLedgerRepo, suite.mockAccountSvc)
}

func (suite *BalanceServiceTestSuite) TestGetBalance_Success() {
	ctx := context.Background()
	testID := uuid.NewString()
	account := &domain.Account{
		AccountID:      testID,
		CurrentBalance: decimal.NewFromInt(-2500),
		CurrencyCode:   domain.USD,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, testID, false).Return(account, nil).Once()

	balance, currency, err := suite.service.GetBalance(ctx, testID)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(-2500)))
	suite.Equal(domain.USD, currency)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *BalanceServiceTestSuite) TestGetBalance_NotFound() {
	ctx := context.Background()
	testID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, testID, false).Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.GetBalance(ctx, testID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *BalanceServiceTestSuite) TestGetLedger_Success() {
	ctx := context.Background()
	testID := uuid.NewString()
	account := &domain.Account{AccountID: testID}
	params := dto.ListLedgerParams{Limit: 2}

	entries := []domain.LedgerEntry{
		{EntryID: uuid.NewString(), AccountID: testID},
		{EntryID: uuid.NewString(), AccountID: testID},
	}
	token := "next-page"

	suite.mockAccountRepo.On("FindAccountByID", ctx, testID, true).Return(account, nil).Once()
	suite.mockLedgerRepo.On("ListEntriesByAccountID", ctx, testID, portsrepo.ListLedgerFilter{Limit: 2}).Return(entries, &token, nil).Once()

	got, nextToken, err := suite.service.GetLedger(ctx, testID, params)

	suite.Require().NoError(err)
	suite.Equal(entries, got)
	suite.Require().NotNil(nextToken)
	suite.Equal(token, *nextToken)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *BalanceServiceTestSuite) TestGetLedger_DeletedAccountStillReadable() {
	ctx := context.Background()
	testID := uuid.NewString()
	deletedAccount := &domain.Account{AccountID: testID, IsDeleted: true}

	suite.mockAccountRepo.On("FindAccountByID", ctx, testID, true).Return(deletedAccount, nil).Once()
	suite.mockLedgerRepo.On("ListEntriesByAccountID", ctx, testID, portsrepo.ListLedgerFilter{}).Return([]domain.LedgerEntry{}, nil, nil).Once()

	entries, nextToken, err := suite.service.GetLedger(ctx, testID, dto.ListLedgerParams{})

	suite.Require().NoError(err)
	suite.Empty(entries)
	suite.Nil(nextToken)
}

func (suite *BalanceServiceTestSuite) TestGetLedger_UnknownAccountFails() {
	ctx := context.Background()
	testID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, testID, true).Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.GetLedger(ctx, testID, dto.ListLedgerParams{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "ListEntriesByAccountID")
}

func (suite *BalanceServiceTestSuite) TestGetLedger_InvertedDateRangeFails() {
	ctx := context.Background()
	testID := uuid.NewString()
	account := &domain.Account{AccountID: testID}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)

	suite.mockAccountRepo.On("FindAccountByID", ctx, testID, true).Return(account, nil).Once()

	_, _, err := suite.service.GetLedger(ctx, testID, dto.ListLedgerParams{DateFrom: &from, DateTo: &to})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "ListEntriesByAccountID")
}

func (suite *BalanceServiceTestSuite) TestListWithBalances_Delegates() {
	ctx := context.Background()
	params := dto.ListAccountsParams{Limit: 5}

	expected := []domain.Account{{AccountID: uuid.NewString(), CurrentBalance: decimal.NewFromInt(300)}}
	suite.mockAccountSvc.On("ListAccounts", ctx, params).Return(expected, int64(1), nil).Once()

	accounts, total, err := suite.service.ListWithBalances(ctx, params)

	suite.Require().NoError(err)
	suite.Equal(expected, accounts)
	suite.Equal(int64(1), total)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func TestBalanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}
