package memory

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/google/uuid"
)

// AccountStore is a mutex-guarded in-process account store with the same
// version compare-and-swap semantics as the postgres adapter. Used by the
// memory driver and by unit tests.
type AccountStore struct {
	mu       sync.RWMutex
	byNumber map[string]domain.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{byNumber: make(map[string]domain.Account)}
}

func (s *AccountStore) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNumber[account.AccountNumber]; ok {
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	}

	now := time.Now().UTC()
	account.ID = uuid.NewString()
	account.Version = 0
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	s.byNumber[account.AccountNumber] = account
	return account, nil
}

func (s *AccountStore) Get(_ context.Context, accountNumber string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byNumber[accountNumber]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountStore) GetByID(_ context.Context, id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.byNumber {
		if account.ID == id {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *AccountStore) Exists(_ context.Context, accountNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byNumber[accountNumber]
	return ok, nil
}

func (s *AccountStore) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, account := range s.byNumber {
		if account.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *AccountStore) ExistsByOwnerAndType(_ context.Context, ownerID string, accountType domain.AccountType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.byNumber {
		if account.OwnerID == ownerID && account.Type == accountType {
			return true, nil
		}
	}
	return false, nil
}

func (s *AccountStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Account, 0)
	for _, account := range s.byNumber {
		if account.OwnerID == ownerID {
			out = append(out, account)
		}
	}
	return out, nil
}

// Save applies the update only when the stored version matches the caller's
// copy, then advances the version.
func (s *AccountStore) Save(_ context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byNumber[account.AccountNumber]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return domain.Account{}, domain.ErrConcurrentModification
	}

	account.ID = stored.ID
	account.CreatedAt = stored.CreatedAt
	account.Version = stored.Version + 1
	account.UpdatedAt = time.Now().UTC()

	s.byNumber[account.AccountNumber] = account
	return account, nil
}
