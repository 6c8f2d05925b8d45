// Package inmemory provides a concurrency-safe, map-backed implementation of
// the repository ports. It mirrors the Postgres repositories' semantics
// (soft delete, live-name uniqueness, all-or-nothing postings, keyset
// pagination) so the service layer can be exercised end to end in tests
// without a database.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sahelco/trade_ledger_app/internal/apperrors"
	"github.com/sahelco/trade_ledger_app/internal/core/domain"
	portsrepo "github.com/sahelco/trade_ledger_app/internal/core/ports/repositories"
	"github.com/sahelco/trade_ledger_app/internal/utils/pagination"
)

// Store holds accounts, ledger entries, and directory entities behind one
// mutex. Every posting batch runs under the lock, which serializes
// concurrent posts the way row locks do in Postgres.
type Store struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	entries   map[string][]domain.LedgerEntry
	directory map[domain.RefKind]map[string]bool // entity ID -> soft-deleted
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		entries:  make(map[string][]domain.LedgerEntry),
		directory: map[domain.RefKind]map[string]bool{
			domain.RefSupplier: {},
			domain.RefCustomer: {},
			domain.RefEmployee: {},
		},
	}
}

var (
	_ portsrepo.AccountRepository   = (*Store)(nil)
	_ portsrepo.LedgerRepository    = (*Store)(nil)
	_ portsrepo.DirectoryRepository = (*Store)(nil)
)

// SeedEntity registers a directory entity so entity account references can
// resolve against it.
func (s *Store) SeedEntity(kind domain.RefKind, entityID string, deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory[kind][entityID] = deleted
}

func (s *Store) EntityExists(_ context.Context, kind domain.RefKind, entityID string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted, found := s.directory[kind][entityID]
	return found, deleted, nil
}

func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if !existing.IsDeleted && existing.Name == account.Name && existing.AccountType == account.AccountType {
			return fmt.Errorf("%w: account %q of type %s already exists", apperrors.ErrConflict, account.Name, account.AccountType)
		}
	}

	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) FindAccountByID(_ context.Context, accountID string, includeDeleted bool) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, found := s.accounts[accountID]
	if !found || (account.IsDeleted && !includeDeleted) {
		return nil, apperrors.ErrNotFound
	}
	return &account, nil
}

func (s *Store) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accountsMap := make(map[string]domain.Account)
	for _, id := range accountIDs {
		if account, found := s.accounts[id]; found && !account.IsDeleted {
			accountsMap[id] = account
		}
	}
	return accountsMap, nil
}

func (s *Store) ListAccounts(_ context.Context, filter portsrepo.ListAccountsFilter) ([]domain.Account, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	matches := []domain.Account{}
	for _, account := range s.accounts {
		if account.IsDeleted {
			continue
		}
		if filter.AccountType != nil && account.AccountType != *filter.AccountType {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(account.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matches = append(matches, account)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := int64(len(matches))
	if offset >= len(matches) {
		return []domain.Account{}, total, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], total, nil
}

func (s *Store) UpdateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.accounts[account.AccountID]
	if !found || existing.IsDeleted {
		return apperrors.ErrNotFound
	}
	for id, other := range s.accounts {
		if id != account.AccountID && !other.IsDeleted && other.Name == account.Name && other.AccountType == account.AccountType {
			return fmt.Errorf("%w: account %q of type %s already exists", apperrors.ErrConflict, account.Name, account.AccountType)
		}
	}

	existing.Name = account.Name
	existing.CurrencyCode = account.CurrencyCode
	existing.RefID = account.RefID
	existing.LastUpdatedAt = account.LastUpdatedAt
	existing.LastUpdatedBy = account.LastUpdatedBy
	s.accounts[account.AccountID] = existing
	return nil
}

func (s *Store) SoftDeleteAccount(_ context.Context, accountID string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, found := s.accounts[accountID]
	if !found {
		return apperrors.ErrNotFound
	}
	if account.IsDeleted {
		return fmt.Errorf("%w: account %s is already deleted", apperrors.ErrConflict, accountID)
	}

	account.IsDeleted = true
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	s.accounts[accountID] = account
	return nil
}

// FindAccountsByIDsForUpdate returns the requested accounts, deleted ones
// included. The tx parameter is ignored; callers inside this store already
// hold the mutex that stands in for row locks.
func (s *Store) FindAccountsByIDsForUpdate(_ context.Context, _ pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedAccountsByIDs(accountIDs)
}

func (s *Store) lockedAccountsByIDs(accountIDs []string) (map[string]domain.Account, error) {
	accountsMap := make(map[string]domain.Account, len(accountIDs))
	missing := []string{}
	for _, id := range accountIDs {
		account, found := s.accounts[id]
		if !found {
			missing = append(missing, id)
			continue
		}
		accountsMap[id] = account
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: could not find all posting target accounts, missing: %v", apperrors.ErrNotFound, missing)
	}
	return accountsMap, nil
}

func (s *Store) ApplyBalanceChangesInTx(_ context.Context, _ pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedApplyBalanceChanges(changes, userID, now)
}

func (s *Store) lockedApplyBalanceChanges(changes map[string]decimal.Decimal, userID string, now time.Time) error {
	for accountID, delta := range changes {
		if delta.IsZero() {
			continue
		}
		account, found := s.accounts[accountID]
		if !found {
			return fmt.Errorf("%w: account %s vanished during balance update", apperrors.ErrNotFound, accountID)
		}
		account.CurrentBalance = account.CurrentBalance.Add(delta)
		account.LastUpdatedAt = now
		account.LastUpdatedBy = userID
		s.accounts[accountID] = account
	}
	return nil
}

// PostEntries applies a posting batch all-or-nothing under one lock: every
// target account is resolved and checked before the first balance or entry
// mutation, so a failed batch leaves the store untouched.
func (s *Store) PostEntries(_ context.Context, postings []domain.Posting, userID string, now time.Time) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uniqueIDs := make([]string, 0, len(postings))
	seen := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		if _, dup := seen[p.AccountID]; !dup {
			seen[p.AccountID] = struct{}{}
			uniqueIDs = append(uniqueIDs, p.AccountID)
		}
	}

	accounts, err := s.lockedAccountsByIDs(uniqueIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range uniqueIDs {
		if accounts[id].IsDeleted {
			return nil, fmt.Errorf("%w: account %s is deleted and cannot accept postings", apperrors.ErrNotFound, id)
		}
	}

	runningBalances := make(map[string]decimal.Decimal, len(accounts))
	for id, account := range accounts {
		runningBalances[id] = account.CurrentBalance
	}
	deltas := make(map[string]decimal.Decimal, len(accounts))

	entries := make([]domain.LedgerEntry, 0, len(postings))
	for _, p := range postings {
		runningBalances[p.AccountID] = runningBalances[p.AccountID].Add(p.Amount)
		deltas[p.AccountID] = deltas[p.AccountID].Add(p.Amount)
		entries = append(entries, domain.LedgerEntry{
			EntryID:           uuid.NewString(),
			AccountID:         p.AccountID,
			Amount:            p.Amount,
			Reason:            p.Reason,
			RelatedDocumentID: p.RelatedDocumentID,
			RunningBalance:    runningBalances[p.AccountID],
			CreatedAt:         now,
			CreatedBy:         userID,
		})
	}

	if err := s.lockedApplyBalanceChanges(deltas, userID, now); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		s.entries[entry.AccountID] = append(s.entries[entry.AccountID], entry)
	}
	return entries, nil
}

func (s *Store) ListEntriesByAccountID(_ context.Context, accountID string, filter portsrepo.ListLedgerFilter) ([]domain.LedgerEntry, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var cursorTime time.Time
	var cursorID string
	hasCursor := false
	if filter.NextToken != nil && *filter.NextToken != "" {
		var err error
		cursorTime, cursorID, err = pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
		}
		hasCursor = true
	}

	matches := []domain.LedgerEntry{}
	for _, entry := range s.entries[accountID] {
		if filter.DateFrom != nil && entry.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && entry.CreatedAt.After(*filter.DateTo) {
			continue
		}
		if hasCursor {
			// Keyset comparison: (created_at, entry_id) < cursor.
			if !(entry.CreatedAt.Before(cursorTime) || (entry.CreatedAt.Equal(cursorTime) && entry.EntryID < cursorID)) {
				continue
			}
		}
		matches = append(matches, entry)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].EntryID > matches[j].EntryID
	})

	var nextToken *string
	if len(matches) > limit {
		matches = matches[:limit]
		last := matches[len(matches)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		nextToken = &token
	}
	return matches, nextToken, nil
}
