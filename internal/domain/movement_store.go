package domain

import (
	"context"
	"time"
)

// MovementFilter narrows ListByAccount results. Zero values mean "no filter";
// Limit defaults to the store's page size when 0.
type MovementFilter struct {
	Kind   MovementKind
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// MovementStore is append-oriented storage for journal entries. Monetary
// fields of a persisted movement are immutable; MarkReversed is the only
// permitted mutation and records the forward link to the compensating entry.
type MovementStore interface {
	Create(ctx context.Context, movement Movement) (Movement, error)
	Get(ctx context.Context, voucherNumber string) (Movement, error)
	GetByID(ctx context.Context, id string) (Movement, error)
	Exists(ctx context.Context, voucherNumber string) (bool, error)
	ListByAccount(ctx context.Context, accountNumber string, filter MovementFilter) ([]Movement, error)
	LatestByAccount(ctx context.Context, accountNumber string) (Movement, error)
	CountByAccount(ctx context.Context, accountNumber string) (int64, error)
	MarkReversed(ctx context.Context, voucherNumber string, reversalID string) error
}
