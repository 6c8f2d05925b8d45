package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/dto"
	"github.com/sahelco/trade_ledger_app/internal/handlers"
	"github.com/sahelco/trade_ledger_app/internal/middleware"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Post(ctx context.Context, accountID string, amount decimal.Decimal, reason domain.PostingReason, relatedDocumentID string, userID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, amount, reason, relatedDocumentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) PostMany(ctx context.Context, postings []domain.Posting, userID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, postings, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

var _ portssvc.LedgerSvc = (*MockLedgerService)(nil)

// --- Test Suite ---
type LedgerHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockLedgerService *MockLedgerService
	jwtSecret         string
}

func (suite *LedgerHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "tla-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signedString
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	dto.RegisterCustomValidators()

	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockLedgerService = new(MockLedgerService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(v1, suite.mockLedgerService)
}

func (suite *LedgerHandlerTestSuite) postBatch(body interface{}, userID string) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/ledger/postings", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *LedgerHandlerTestSuite) TestPostEntries_Success() {
	userID := uuid.NewString()
	cashierID := uuid.NewString()
	supplierAccID := uuid.NewString()
	docID := uuid.NewString()

	body := dto.PostLedgerRequest{
		Postings: []dto.PostingRequest{
			{AccountID: cashierID, Amount: decimal.NewFromInt(-5000), Reason: "purchase", RelatedDocumentID: docID},
			{AccountID: supplierAccID, Amount: decimal.NewFromInt(5000), Reason: "purchase", RelatedDocumentID: docID},
		},
	}

	entries := []domain.LedgerEntry{
		{EntryID: uuid.NewString(), AccountID: cashierID, Amount: decimal.NewFromInt(-5000), Reason: domain.ReasonPurchase, RunningBalance: decimal.NewFromInt(5000)},
		{EntryID: uuid.NewString(), AccountID: supplierAccID, Amount: decimal.NewFromInt(5000), Reason: domain.ReasonPurchase, RunningBalance: decimal.NewFromInt(5000)},
	}

	suite.mockLedgerService.On("PostMany", mock.Anything, mock.MatchedBy(func(p []domain.Posting) bool {
		return len(p) == 2 && p[0].AccountID == cashierID && p[1].AccountID == supplierAccID
	}), userID).Return(entries, nil).Once()

	w := suite.postBatch(body, userID)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.ListLedgerResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 2)
	suite.Equal(entries[0].EntryID, resp.Entries[0].EntryID)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestPostEntries_EmptyBatchRejectedByBinding() {
	userID := uuid.NewString()
	body := dto.PostLedgerRequest{Postings: []dto.PostingRequest{}}

	w := suite.postBatch(body, userID)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "PostMany")
}

func (suite *LedgerHandlerTestSuite) TestPostEntries_UnknownReasonRejectedByBinding() {
	userID := uuid.NewString()
	body := dto.PostLedgerRequest{
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Reason: "donation"},
		},
	}

	w := suite.postBatch(body, userID)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "PostMany")
}

func (suite *LedgerHandlerTestSuite) TestPostEntries_UnknownAccount() {
	userID := uuid.NewString()
	body := dto.PostLedgerRequest{
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Reason: "adjustment"},
		},
	}

	notFoundErr := fmt.Errorf("%w: missing account", apperrors.ErrNotFound)
	suite.mockLedgerService.On("PostMany", mock.Anything, mock.Anything, userID).Return(nil, notFoundErr).Once()

	w := suite.postBatch(body, userID)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestPostEntries_ExhaustedRetriesConflict() {
	userID := uuid.NewString()
	body := dto.PostLedgerRequest{
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Reason: "transfer"},
		},
	}

	conflictErr := fmt.Errorf("%w: serialization failure", apperrors.ErrStorageConflict)
	suite.mockLedgerService.On("PostMany", mock.Anything, mock.Anything, userID).Return(nil, conflictErr).Once()

	w := suite.postBatch(body, userID)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestPostEntries_StorageUnavailable() {
	userID := uuid.NewString()
	body := dto.PostLedgerRequest{
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Reason: "sale"},
		},
	}

	unavailableErr := fmt.Errorf("%w: connection refused", apperrors.ErrStorageUnavailable)
	suite.mockLedgerService.On("PostMany", mock.Anything, mock.Anything, userID).Return(nil, unavailableErr).Once()

	w := suite.postBatch(body, userID)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

// --- Run Test Suite ---
func TestLedgerHandler(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
