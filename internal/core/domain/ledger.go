package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingReason states which business event produced a ledger entry.
type PostingReason string

const (
	ReasonPurchase   PostingReason = "purchase"
	ReasonSale       PostingReason = "sale"
	ReasonTransfer   PostingReason = "transfer"
	ReasonAdjustment PostingReason = "adjustment"
)

// IsValid reports whether the reason is one of the recognized values.
func (r PostingReason) IsValid() bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonTransfer, ReasonAdjustment:
		return true
	}
	return false
}

// LedgerEntry is an immutable, signed monetary movement against one account.
// Entries are never updated or deleted; they form the audit trail backing
// the invariant currentBalance = openingBalance + sum(entry amounts).
type LedgerEntry struct {
	EntryID           string          `json:"entryID"`   // Primary key (UUID)
	AccountID         string          `json:"accountID"` // FK -> Account.AccountID
	Amount            decimal.Decimal `json:"amount"`    // Signed; negative reduces the balance
	Reason            PostingReason   `json:"reason"`
	RelatedDocumentID string          `json:"relatedDocumentID"` // Business document (purchase, sale, ...)
	RunningBalance    decimal.Decimal `json:"runningBalance"`    // Account balance after this entry
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// Posting is one requested movement inside a batch post: the signed amount
// to apply to a single account. A purchase typically posts two of these
// (payment account down, supplier debt up).
type Posting struct {
	AccountID         string
	Amount            decimal.Decimal
	Reason            PostingReason
	RelatedDocumentID string
}
