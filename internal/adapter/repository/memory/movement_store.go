package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/google/uuid"
)

const defaultPageSize = 50

// MovementStore keeps journal entries in insertion order per account. Entries
// are never removed and their monetary fields are never rewritten.
type MovementStore struct {
	mu        sync.RWMutex
	byVoucher map[string]domain.Movement
	byAccount map[string][]string
}

func NewMovementStore() *MovementStore {
	return &MovementStore{
		byVoucher: make(map[string]domain.Movement),
		byAccount: make(map[string][]string),
	}
}

func (s *MovementStore) Create(_ context.Context, movement domain.Movement) (domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byVoucher[movement.VoucherNumber]; ok {
		return domain.Movement{}, domain.ErrDuplicateVoucher
	}

	movement.ID = uuid.NewString()
	if movement.PostedAt.IsZero() {
		movement.PostedAt = time.Now().UTC()
	}

	s.byVoucher[movement.VoucherNumber] = movement
	s.byAccount[movement.AccountNumber] = append(s.byAccount[movement.AccountNumber], movement.VoucherNumber)
	return movement, nil
}

func (s *MovementStore) Get(_ context.Context, voucherNumber string) (domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movement, ok := s.byVoucher[voucherNumber]
	if !ok {
		return domain.Movement{}, domain.ErrMovementNotFound
	}
	return movement, nil
}

func (s *MovementStore) GetByID(_ context.Context, id string) (domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, movement := range s.byVoucher {
		if movement.ID == id {
			return movement, nil
		}
	}
	return domain.Movement{}, domain.ErrMovementNotFound
}

func (s *MovementStore) Exists(_ context.Context, voucherNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byVoucher[voucherNumber]
	return ok, nil
}

func (s *MovementStore) ListByAccount(_ context.Context, accountNumber string, filter domain.MovementFilter) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Movement, 0)
	for _, voucher := range s.byAccount[accountNumber] {
		movement := s.byVoucher[voucher]
		if filter.Kind != "" && movement.Kind != filter.Kind {
			continue
		}
		if !filter.From.IsZero() && movement.PostedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && movement.PostedAt.After(filter.To) {
			continue
		}
		matched = append(matched, movement)
	}

	// Newest first, matching the postgres adapter's ordering.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PostedAt.After(matched[j].PostedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := filter.Offset
	if offset >= len(matched) {
		return []domain.Movement{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *MovementStore) LatestByAccount(_ context.Context, accountNumber string) (domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vouchers := s.byAccount[accountNumber]
	if len(vouchers) == 0 {
		return domain.Movement{}, domain.ErrMovementNotFound
	}

	latest := s.byVoucher[vouchers[0]]
	for _, voucher := range vouchers[1:] {
		movement := s.byVoucher[voucher]
		if movement.PostedAt.After(latest.PostedAt) {
			latest = movement
		}
	}
	return latest, nil
}

func (s *MovementStore) CountByAccount(_ context.Context, accountNumber string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.byAccount[accountNumber])), nil
}

func (s *MovementStore) MarkReversed(_ context.Context, voucherNumber string, reversalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	movement, ok := s.byVoucher[voucherNumber]
	if !ok {
		return domain.ErrMovementNotFound
	}
	if movement.Reversed {
		return domain.ErrAlreadyReversed
	}

	movement.MarkReversed(reversalID)
	s.byVoucher[voucherNumber] = movement
	return nil
}
