package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/usecase/services"
)

func TestTransactionProcessorPostCredit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID:        "owner-1",
		Type:           domain.AccountTypeSavings,
		InitialBalance: decimal.RequireFromString("100.00"),
	})

	movement, err := f.processor.Post(ctx, services.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		VoucherNumber: "MOV-2026-00000001",
		Kind:          domain.MovementKindCredit,
		Amount:        decimal.RequireFromString("25.00"),
		Concept:       "DEPOSIT",
	})
	require.NoError(t, err)

	assert.True(t, movement.Processed)
	assert.True(t, movement.BalanceBefore.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, movement.BalanceAfter.Equal(decimal.RequireFromString("125.00")))

	updated, err := f.ledger.Get(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.True(t, updated.AvailableBalance.Equal(decimal.RequireFromString("125.00")))
	assert.True(t, updated.BookBalance.Equal(decimal.RequireFromString("125.00")))
}

func TestTransactionProcessorPostDebitIntoOverdraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID:        "owner-1",
		Type:           domain.AccountTypeChecking,
		InitialBalance: decimal.RequireFromString("100.00"),
		OverdraftLimit: decimal.RequireFromString("50.00"),
	})

	movement, err := f.processor.Post(ctx, services.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		Kind:          domain.MovementKindDebit,
		Amount:        decimal.RequireFromString("140.00"),
		Concept:       "WITHDRAWAL",
	})
	require.NoError(t, err)
	assert.True(t, movement.BalanceAfter.Equal(decimal.RequireFromString("-40.00")))

	// Only 10.00 of headroom remains.
	_, err = f.processor.Post(ctx, services.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		Kind:          domain.MovementKindDebit,
		Amount:        decimal.RequireFromString("10.01"),
		Concept:       "WITHDRAWAL",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The rejected debit left the balance untouched.
	updated, err := f.ledger.Get(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.True(t, updated.AvailableBalance.Equal(decimal.RequireFromString("-40.00")))
}

func TestTransactionProcessorGeneratesVoucher(t *testing.T) {
	f := newFixture()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID: "owner-1",
		Type:    domain.AccountTypeSavings,
	})

	movement, err := f.processor.Post(context.Background(), services.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		Kind:          domain.MovementKindCredit,
		Amount:        decimal.RequireFromString("1.00"),
		Concept:       "DEPOSIT",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(movement.VoucherNumber, "MOV-"))
}

func TestTransactionProcessorDuplicateVoucher(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID: "owner-1",
		Type:    domain.AccountTypeSavings,
	})

	req := services.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		VoucherNumber: "MOV-2026-00000002",
		Kind:          domain.MovementKindCredit,
		Amount:        decimal.RequireFromString("5.00"),
		Concept:       "DEPOSIT",
	}

	_, err := f.processor.Post(ctx, req)
	require.NoError(t, err)

	_, err = f.processor.Post(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateVoucher)

	// The duplicate did not post a second credit.
	updated, err := f.ledger.Get(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.True(t, updated.AvailableBalance.Equal(decimal.RequireFromString("5.00")))
}

func TestTransactionProcessorAccountNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.processor.Post(context.Background(), services.PostMovementRequest{
		AccountNumber: "0000000000",
		Kind:          domain.MovementKindCredit,
		Amount:        decimal.RequireFromString("5.00"),
		Concept:       "DEPOSIT",
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransactionProcessorRejectsInactiveAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID:        "owner-1",
		Type:           domain.AccountTypeSavings,
		InitialBalance: decimal.RequireFromString("100.00"),
	})
	_, err := f.ledger.Block(ctx, account.AccountNumber)
	require.NoError(t, err)

	for _, kind := range []domain.MovementKind{domain.MovementKindDebit, domain.MovementKindCredit} {
		_, err = f.processor.Post(ctx, services.PostMovementRequest{
			AccountNumber: account.AccountNumber,
			Kind:          kind,
			Amount:        decimal.RequireFromString("10.00"),
			Concept:       "TEST",
		})
		assert.ErrorIs(t, err, domain.ErrAccountNotActive)
	}
}

func TestTransactionProcessorValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []services.PostMovementRequest{
		{Kind: domain.MovementKindCredit, Amount: decimal.RequireFromString("1.00"), Concept: "X"},
		{AccountNumber: "1000000001", Kind: "TRANSFER", Amount: decimal.RequireFromString("1.00"), Concept: "X"},
		{AccountNumber: "1000000001", Kind: domain.MovementKindCredit, Amount: decimal.Zero, Concept: "X"},
		{AccountNumber: "1000000001", Kind: domain.MovementKindDebit, Amount: decimal.RequireFromString("-1.00"), Concept: "X"},
		{AccountNumber: "1000000001", Kind: domain.MovementKindCredit, Amount: decimal.RequireFromString("1.00")},
	}
	for _, req := range cases {
		_, err := f.processor.Post(ctx, req)
		assert.Error(t, err)
	}
}

// Concurrent debits against the same headroom must not overdraw the account:
// the version compare-and-swap serializes the commit unit.
func TestTransactionProcessorConcurrentDebits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID:        "owner-1",
		Type:           domain.AccountTypeChecking,
		InitialBalance: decimal.RequireFromString("100.00"),
	})

	const workers = 8
	amount := decimal.RequireFromString("60.00")
	results := make(chan error, workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := f.processor.Post(ctx, services.PostMovementRequest{
				AccountNumber: account.AccountNumber,
				Kind:          domain.MovementKindDebit,
				Amount:        amount,
				Concept:       "WITHDRAWAL",
			})
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domain.ErrInsufficientFunds) && !errors.Is(err, domain.ErrConcurrentModification) {
			t.Fatalf("unexpected error from concurrent debit: %v", err)
		}
	}
	assert.LessOrEqual(t, succeeded, 1)

	final, err := f.ledger.Get(ctx, account.AccountNumber)
	require.NoError(t, err)
	expected := decimal.RequireFromString("100.00").Sub(amount.Mul(decimal.NewFromInt(int64(succeeded))))
	assert.True(t, final.AvailableBalance.Equal(expected),
		"final balance %s does not match %d successful debits", final.AvailableBalance, succeeded)

	count, err := f.processor.CountByAccount(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.EqualValues(t, succeeded, count)
}

func TestTransactionProcessorQueries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account := f.openAccount(t, services.OpenAccountSpec{
		OwnerID: "owner-1",
		Type:    domain.AccountTypeSavings,
	})

	for _, voucher := range []string{"MOV-2026-00000010", "MOV-2026-00000011"} {
		_, err := f.processor.Post(ctx, services.PostMovementRequest{
			AccountNumber: account.AccountNumber,
			VoucherNumber: voucher,
			Kind:          domain.MovementKindCredit,
			Amount:        decimal.RequireFromString("10.00"),
			Concept:       "DEPOSIT",
		})
		require.NoError(t, err)
	}

	got, err := f.processor.Get(ctx, "MOV-2026-00000010")
	require.NoError(t, err)
	assert.Equal(t, account.AccountNumber, got.AccountNumber)

	_, err = f.processor.Get(ctx, "MOV-2026-99999999")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)

	listed, err := f.processor.ListByAccount(ctx, account.AccountNumber, domain.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	latest, err := f.processor.LatestByAccount(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, "MOV-2026-00000011", latest.VoucherNumber)
}
