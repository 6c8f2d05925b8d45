package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType classifies an account. Entity types reference a record in one
// of the external directories; system types are company-internal money
// holders (cash drawer, safe, money exchanger) and carry no reference.
type AccountType string

const (
	Supplier AccountType = "supplier"
	Customer AccountType = "customer"
	Employee AccountType = "employee"
	Cashier  AccountType = "cashier"
	Safe     AccountType = "safe"
	Saraf    AccountType = "saraf"
)

// IsSystem reports whether the account type is a system account (no external
// entity reference).
func (t AccountType) IsSystem() bool {
	switch t {
	case Cashier, Safe, Saraf:
		return true
	}
	return false
}

// IsValid reports whether the account type is one of the recognized values.
func (t AccountType) IsValid() bool {
	switch t {
	case Supplier, Customer, Employee, Cashier, Safe, Saraf:
		return true
	}
	return false
}

// CurrencyCode is an ISO-ish currency identifier. Only the currencies the
// company trades in are accepted.
type CurrencyCode string

const (
	AFN CurrencyCode = "AFN"
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
)

// DefaultCurrency is applied when account creation omits a currency.
const DefaultCurrency = AFN

// IsValid reports whether the currency is supported.
func (c CurrencyCode) IsValid() bool {
	switch c {
	case AFN, USD, EUR:
		return true
	}
	return false
}

// Account represents a financial account within the core domain.
// CurrentBalance is mutated exclusively by the ledger posting engine;
// OpeningBalance is written once at creation. (name, type) is unique among
// non-deleted accounts, so a soft-deleted account's name may be reused.
type Account struct {
	AccountID      string          `json:"accountID"`   // Primary key (UUID)
	AccountType    AccountType     `json:"accountType"` // supplier, customer, ...
	RefID          *string         `json:"refID"`       // Directory entity ID; nil for system accounts
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	CurrencyCode   CurrencyCode    `json:"currencyCode"`
	IsDeleted      bool            `json:"isDeleted"` // Soft delete; ledger history is retained
	AuditFields
}
