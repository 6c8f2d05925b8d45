package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
)

// PostingRequest is one signed movement inside a posting batch.
type PostingRequest struct {
	AccountID         string          `json:"accountID" binding:"required,uuid"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Reason            string          `json:"reason" binding:"required,postingreason"`
	RelatedDocumentID string          `json:"relatedDocumentID"`
}

// PostLedgerRequest carries a batch of postings to apply as one
// all-or-nothing unit.
type PostLedgerRequest struct {
	Postings []PostingRequest `json:"postings" binding:"required,min=1,dive"`
}

// ToDomainPostings converts the request lines to domain postings.
func (r PostLedgerRequest) ToDomainPostings() []domain.Posting {
	postings := make([]domain.Posting, len(r.Postings))
	for i, p := range r.Postings {
		postings[i] = domain.Posting{
			AccountID:         p.AccountID,
			Amount:            p.Amount,
			Reason:            domain.PostingReason(p.Reason),
			RelatedDocumentID: p.RelatedDocumentID,
		}
	}
	return postings
}

// LedgerEntryResponse defines the data returned for a ledger entry.
type LedgerEntryResponse struct {
	EntryID           string               `json:"entryID"`
	AccountID         string               `json:"accountID"`
	Amount            decimal.Decimal      `json:"amount"`
	Reason            domain.PostingReason `json:"reason"`
	RelatedDocumentID string               `json:"relatedDocumentID,omitempty"`
	RunningBalance    decimal.Decimal      `json:"runningBalance"`
	CreatedAt         time.Time            `json:"createdAt"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its response DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:           e.EntryID,
		AccountID:         e.AccountID,
		Amount:            e.Amount,
		Reason:            e.Reason,
		RelatedDocumentID: e.RelatedDocumentID,
		RunningBalance:    e.RunningBalance,
		CreatedAt:         e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of entries.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i])
	}
	return responses
}

// ListLedgerParams defines query parameters for ledger history.
type ListLedgerParams struct {
	Limit     int        `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string    `form:"nextToken"`
	DateFrom  *time.Time `form:"dateFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	DateTo    *time.Time `form:"dateTo" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListLedgerResponse wraps a page of ledger entries with the cursor for the
// next page, nil when the history is exhausted.
type ListLedgerResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}
