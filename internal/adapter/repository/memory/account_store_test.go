package memory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/core-banking-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/core-banking-ledger/internal/domain"
)

func newAccount(number, ownerID string, accountType domain.AccountType) domain.Account {
	return domain.Account{
		AccountNumber:    number,
		OwnerID:          ownerID,
		Type:             accountType,
		Status:           domain.AccountStatusActive,
		AvailableBalance: decimal.Zero,
		BookBalance:      decimal.Zero,
		OverdraftLimit:   decimal.Zero,
		Currency:         "USD",
		DebitAllowed:     true,
		CreditAllowed:    true,
	}
}

func TestAccountStoreCreateAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAccountStore()

	created, err := store.Create(ctx, newAccount("1000000001", "owner-1", domain.AccountTypeSavings))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.EqualValues(t, 0, created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = store.Create(ctx, newAccount("1000000001", "owner-2", domain.AccountTypeSavings))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccountNumber)
}

func TestAccountStoreSaveCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAccountStore()

	created, err := store.Create(ctx, newAccount("1000000002", "owner-1", domain.AccountTypeChecking))
	require.NoError(t, err)

	// Two readers load the same version; only the first write lands.
	first := created
	second := created

	first.AvailableBalance = decimal.RequireFromString("10.00")
	saved, err := store.Save(ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 1, saved.Version)

	second.AvailableBalance = decimal.RequireFromString("20.00")
	_, err = store.Save(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	// A retry from fresh state succeeds.
	fresh, err := store.Get(ctx, "1000000002")
	require.NoError(t, err)
	fresh.AvailableBalance = decimal.RequireFromString("20.00")
	saved, err = store.Save(ctx, fresh)
	require.NoError(t, err)
	assert.EqualValues(t, 2, saved.Version)
}

func TestAccountStoreSaveUnknownAccount(t *testing.T) {
	store := memory.NewAccountStore()

	_, err := store.Save(context.Background(), newAccount("9999999999", "owner-1", domain.AccountTypeSavings))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountStoreOwnerQueries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAccountStore()

	_, err := store.Create(ctx, newAccount("1000000003", "owner-1", domain.AccountTypeSavings))
	require.NoError(t, err)
	_, err = store.Create(ctx, newAccount("1000000004", "owner-1", domain.AccountTypeTermDeposit))
	require.NoError(t, err)
	_, err = store.Create(ctx, newAccount("1000000005", "owner-2", domain.AccountTypeSavings))
	require.NoError(t, err)

	count, err := store.CountByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	holds, err := store.ExistsByOwnerAndType(ctx, "owner-1", domain.AccountTypeTermDeposit)
	require.NoError(t, err)
	assert.True(t, holds)

	holds, err = store.ExistsByOwnerAndType(ctx, "owner-2", domain.AccountTypeTermDeposit)
	require.NoError(t, err)
	assert.False(t, holds)

	listed, err := store.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
