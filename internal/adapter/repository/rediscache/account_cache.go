package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "account:"

// AccountCache is a read-through decorator over an AccountStore. Lookups by
// account number are served from Redis when possible; every write path,
// including a failed compare-and-swap, invalidates the key so retrying
// writers re-read fresh state.
type AccountCache struct {
	next   domain.AccountStore
	client *goredis.Client
	ttl    time.Duration
}

func NewAccountCache(next domain.AccountStore, client *goredis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{next: next, client: client, ttl: ttl}
}

func (c *AccountCache) Get(ctx context.Context, accountNumber string) (domain.Account, error) {
	key := keyPrefix + accountNumber

	if data, err := c.client.Get(ctx, key).Result(); err == nil {
		var account domain.Account
		if err := json.Unmarshal([]byte(data), &account); err == nil {
			return account, nil
		}
		// Unreadable entry; fall through and refresh it.
		c.invalidate(ctx, accountNumber)
	}

	account, err := c.next.Get(ctx, accountNumber)
	if err != nil {
		return domain.Account{}, err
	}

	if data, err := json.Marshal(account); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Error("account cache write failed", err, logger.Fields{
				"accountNumber": accountNumber,
			})
		}
	}

	return account, nil
}

func (c *AccountCache) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	created, err := c.next.Create(ctx, account)
	if err != nil {
		return domain.Account{}, err
	}
	c.invalidate(ctx, created.AccountNumber)
	return created, nil
}

func (c *AccountCache) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	saved, err := c.next.Save(ctx, account)
	// Invalidate on conflict as well: the cached copy is what went stale.
	c.invalidate(ctx, account.AccountNumber)
	if err != nil {
		return domain.Account{}, err
	}
	return saved, nil
}

func (c *AccountCache) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return c.next.GetByID(ctx, id)
}

func (c *AccountCache) Exists(ctx context.Context, accountNumber string) (bool, error) {
	return c.next.Exists(ctx, accountNumber)
}

func (c *AccountCache) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	return c.next.CountByOwner(ctx, ownerID)
}

func (c *AccountCache) ExistsByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (bool, error) {
	return c.next.ExistsByOwnerAndType(ctx, ownerID, accountType)
}

func (c *AccountCache) ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	return c.next.ListByOwner(ctx, ownerID)
}

func (c *AccountCache) invalidate(ctx context.Context, accountNumber string) {
	if err := c.client.Del(ctx, keyPrefix+accountNumber).Err(); err != nil {
		logger.Error("account cache invalidate failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
	}
}
