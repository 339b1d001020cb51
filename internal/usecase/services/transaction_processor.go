package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// maxCommitAttempts bounds the internal retry of the commit unit when the
// account record changed between load and compare-and-swap write.
const maxCommitAttempts = 3

// PostMovementRequest describes a proposed movement. VoucherNumber may be
// empty, in which case a fresh one is generated.
type PostMovementRequest struct {
	AccountNumber     string
	VoucherNumber     string
	Kind              domain.MovementKind
	Amount            decimal.Decimal
	Concept           string
	Description       string
	Branch            string
	Teller            string
	Channel           string
	ExternalReference string
}

func (r PostMovementRequest) validate() error {
	if strings.TrimSpace(r.AccountNumber) == "" {
		return fmt.Errorf("accountNumber is required")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("kind must be DEBIT or CREDIT")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if strings.TrimSpace(r.Concept) == "" {
		return fmt.Errorf("concept is required")
	}
	return nil
}

// TransactionProcessor is the only path by which account balances change.
// Post validates a proposed movement against account state, applies the
// balance mutation through the ledger and persists the journal entry, with
// per-account serialization via the account store's version compare-and-swap.
type TransactionProcessor struct {
	ledger    *AccountLedger
	accounts  domain.AccountStore
	movements domain.MovementStore
	ids       *IdentifierGenerator
}

func NewTransactionProcessor(
	ledger *AccountLedger,
	accounts domain.AccountStore,
	movements domain.MovementStore,
	ids *IdentifierGenerator,
) *TransactionProcessor {
	return &TransactionProcessor{
		ledger:    ledger,
		accounts:  accounts,
		movements: movements,
		ids:       ids,
	}
}

func (p *TransactionProcessor) Post(ctx context.Context, req PostMovementRequest) (domain.Movement, error) {
	logger.Info("transaction processor post request", logger.Fields{
		"accountNumber": req.AccountNumber,
		"voucherNumber": req.VoucherNumber,
		"kind":          req.Kind,
		"amount":        req.Amount,
	})

	if err := req.validate(); err != nil {
		return domain.Movement{}, err
	}

	voucherNumber := strings.TrimSpace(req.VoucherNumber)
	if voucherNumber == "" {
		generated, err := p.ids.NextVoucherNumber(ctx)
		if err != nil {
			return domain.Movement{}, err
		}
		voucherNumber = generated
	} else {
		exists, err := p.movements.Exists(ctx, voucherNumber)
		if err != nil {
			return domain.Movement{}, fmt.Errorf("check voucher number: %w", err)
		}
		if exists {
			return domain.Movement{}, domain.ErrDuplicateVoucher
		}
	}

	accountNumber := strings.TrimSpace(req.AccountNumber)

	var lastErr error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		movement, err := p.commit(ctx, accountNumber, voucherNumber, req)
		if err == nil {
			logger.Info("transaction processor post success", logger.Fields{
				"movementId":    movement.ID,
				"voucherNumber": movement.VoucherNumber,
				"balanceAfter":  movement.BalanceAfter,
			})
			return movement, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return domain.Movement{}, err
		}
		lastErr = err
		logger.Info("transaction processor commit conflict, retrying", logger.Fields{
			"accountNumber": accountNumber,
			"attempt":       attempt + 1,
		})
	}

	return domain.Movement{}, lastErr
}

// commit runs one pass of the validate-then-write sequence. The account
// write is a compare-and-swap on the version read here; a conflict aborts the
// pass with no observable state change.
func (p *TransactionProcessor) commit(ctx context.Context, accountNumber, voucherNumber string, req PostMovementRequest) (domain.Movement, error) {
	account, err := p.accounts.Get(ctx, accountNumber)
	if err != nil {
		return domain.Movement{}, err
	}

	if account.Status != domain.AccountStatusActive {
		return domain.Movement{}, fmt.Errorf("%w: %s is %s", domain.ErrAccountNotActive, accountNumber, account.Status)
	}

	switch req.Kind {
	case domain.MovementKindDebit:
		if !account.CanDebit(req.Amount) {
			return domain.Movement{}, fmt.Errorf("%w: account %s available %s, requested %s",
				domain.ErrInsufficientFunds, accountNumber, account.AvailableBalance.StringFixed(2), req.Amount.StringFixed(2))
		}
	case domain.MovementKindCredit:
		if !account.CanCredit() {
			return domain.Movement{}, fmt.Errorf("%w: %s does not accept credits", domain.ErrAccountNotActive, accountNumber)
		}
	}

	movement := domain.NewMovement(accountNumber, voucherNumber, req.Kind, req.Amount, account.AvailableBalance, strings.TrimSpace(req.Concept))
	movement.Description = strings.TrimSpace(req.Description)
	movement.Branch = strings.TrimSpace(req.Branch)
	movement.Teller = strings.TrimSpace(req.Teller)
	movement.Channel = strings.TrimSpace(req.Channel)
	movement.ExternalReference = strings.TrimSpace(req.ExternalReference)
	movement.MarkProcessed()

	p.ledger.applyMovement(&account, req.Amount, req.Kind)

	if _, err := p.accounts.Save(ctx, account); err != nil {
		return domain.Movement{}, err
	}

	created, err := p.movements.Create(ctx, movement)
	if err != nil {
		// The balance delta is already applied; retrying here would risk
		// applying it twice. Surface the dangling state for reconciliation.
		logger.Error("transaction processor journal write failed after balance update", err, logger.Fields{
			"accountNumber": accountNumber,
			"voucherNumber": voucherNumber,
		})
		return domain.Movement{}, fmt.Errorf("%w: voucher %s: %v", domain.ErrJournalWriteFailed, voucherNumber, err)
	}

	return created, nil
}

func (p *TransactionProcessor) Get(ctx context.Context, voucherNumber string) (domain.Movement, error) {
	return p.movements.Get(ctx, strings.TrimSpace(voucherNumber))
}

func (p *TransactionProcessor) ListByAccount(ctx context.Context, accountNumber string, filter domain.MovementFilter) ([]domain.Movement, error) {
	return p.movements.ListByAccount(ctx, strings.TrimSpace(accountNumber), filter)
}

func (p *TransactionProcessor) LatestByAccount(ctx context.Context, accountNumber string) (domain.Movement, error) {
	return p.movements.LatestByAccount(ctx, strings.TrimSpace(accountNumber))
}

func (p *TransactionProcessor) CountByAccount(ctx context.Context, accountNumber string) (int64, error) {
	return p.movements.CountByAccount(ctx, strings.TrimSpace(accountNumber))
}
