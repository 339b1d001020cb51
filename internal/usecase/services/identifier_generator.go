package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	"github.com/google/uuid"
)

const maxGenerationAttempts = 5

// IdentifierGenerator produces collision-checked account and voucher
// numbers. Uniqueness is ultimately enforced by the stores' unique indexes;
// the existence check here keeps collisions out of the hot path.
type IdentifierGenerator struct {
	accounts  domain.AccountStore
	movements domain.MovementStore
}

func NewIdentifierGenerator(accounts domain.AccountStore, movements domain.MovementStore) *IdentifierGenerator {
	return &IdentifierGenerator{accounts: accounts, movements: movements}
}

// NextAccountNumber returns a fresh 10-digit account number.
func (g *IdentifierGenerator) NextAccountNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		candidate := fmt.Sprintf("%010d", randomDigits(10_000_000_000))

		exists, err := g.accounts.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check account number candidate: %w", err)
		}
		if !exists {
			logger.Info("identifier generator account number issued", logger.Fields{
				"accountNumber": candidate,
			})
			return candidate, nil
		}
	}

	return "", domain.ErrIdentifierExhausted
}

// NextVoucherNumber returns a fresh year-prefixed voucher number, e.g.
// MOV-2026-04815162.
func (g *IdentifierGenerator) NextVoucherNumber(ctx context.Context) (string, error) {
	year := time.Now().UTC().Year()

	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		candidate := fmt.Sprintf("MOV-%d-%08d", year, randomDigits(100_000_000))

		exists, err := g.movements.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check voucher number candidate: %w", err)
		}
		if !exists {
			logger.Info("identifier generator voucher number issued", logger.Fields{
				"voucherNumber": candidate,
			})
			return candidate, nil
		}
	}

	return "", domain.ErrIdentifierExhausted
}

func randomDigits(mod uint64) uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8]) % mod
}
