package domain

import "context"

// AccountStore is durable keyed storage for account records. Save is a
// compare-and-swap on Account.Version: it only applies when the stored
// version matches and returns ErrConcurrentModification otherwise.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	Get(ctx context.Context, accountNumber string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	Exists(ctx context.Context, accountNumber string) (bool, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	ExistsByOwnerAndType(ctx context.Context, ownerID string, accountType AccountType) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Account, error)
	Save(ctx context.Context, account Account) (Account, error)
}
