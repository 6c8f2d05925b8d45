package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
// RefID is required for entity account types (supplier/customer/employee)
// and must be absent for system types (cashier/safe/saraf).
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required"`
	AccountType    domain.AccountType `json:"accountType" binding:"required,accounttype"`
	RefID          *string            `json:"refID"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	CurrencyCode   string             `json:"currencyCode" binding:"omitempty,currencycode"`
}

// UpdateAccountRequest defines the fields that may change after creation.
// Pointers distinguish "not provided" from zero values. Balances are never
// updatable here; they belong to the posting engine.
type UpdateAccountRequest struct {
	Name         *string `json:"name"`
	CurrencyCode *string `json:"currencyCode" binding:"omitempty,currencycode"`
	RefID        *string `json:"refID"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID      string             `json:"accountID"`
	AccountType    domain.AccountType `json:"accountType"`
	RefID          *string            `json:"refID,omitempty"`
	Name           string             `json:"name"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	CurrentBalance decimal.Decimal    `json:"currentBalance"`
	CurrencyCode   domain.CurrencyCode `json:"currencyCode"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastUpdatedAt  time.Time          `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		AccountType:    acc.AccountType,
		RefID:          acc.RefID,
		Name:           acc.Name,
		OpeningBalance: acc.OpeningBalance,
		CurrentBalance: acc.CurrentBalance,
		CurrencyCode:   acc.CurrencyCode,
		CreatedAt:      acc.CreatedAt,
		LastUpdatedAt:  acc.LastUpdatedAt,
	}
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Type   string `form:"type" binding:"omitempty,accounttype"`
	Search string `form:"search"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset,default=0" binding:"omitempty,min=0"`
}

// ListAccountsResponse wraps a page of accounts with the total match count.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// AccountBalanceResponse defines the data returned for a balance query.
type AccountBalanceResponse struct {
	AccountID string              `json:"accountID"`
	Balance   decimal.Decimal     `json:"balance"`
	Currency  domain.CurrencyCode `json:"currency"`
}
