package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

const maxAccountsPerOwner = 5

// OpenAccountSpec carries everything account opening needs. Optional fields
// get explicit defaults at construction; there are no partial updates later.
type OpenAccountSpec struct {
	AccountNumber  string
	OwnerID        string
	OwnerName      string
	Type           domain.AccountType
	InitialBalance decimal.Decimal
	OverdraftLimit decimal.Decimal
	Currency       string
	Branch         string
	Officer        string
}

func (s OpenAccountSpec) validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return fmt.Errorf("ownerId is required")
	}
	if !s.Type.Valid() {
		return fmt.Errorf("accountType must be one of SAVINGS, CHECKING, TERM_DEPOSIT, SIGHT")
	}
	if s.InitialBalance.IsNegative() {
		return fmt.Errorf("initialBalance cannot be negative")
	}
	if s.OverdraftLimit.IsNegative() {
		return fmt.Errorf("overdraftLimit cannot be negative")
	}
	return nil
}

// AccountLedger owns account balance semantics and lifecycle transitions.
// Balance mutation happens only through applyMovement, and only the
// TransactionProcessor calls it, inside its commit unit.
type AccountLedger struct {
	accounts domain.AccountStore
	ids      *IdentifierGenerator
}

func NewAccountLedger(accounts domain.AccountStore, ids *IdentifierGenerator) *AccountLedger {
	return &AccountLedger{accounts: accounts, ids: ids}
}

func (l *AccountLedger) Open(ctx context.Context, spec OpenAccountSpec) (domain.Account, error) {
	logger.Info("account ledger open request", logger.Fields{
		"ownerId":     spec.OwnerID,
		"accountType": spec.Type,
	})

	if err := spec.validate(); err != nil {
		return domain.Account{}, err
	}

	accountNumber := strings.TrimSpace(spec.AccountNumber)
	if accountNumber == "" {
		generated, err := l.ids.NextAccountNumber(ctx)
		if err != nil {
			return domain.Account{}, err
		}
		accountNumber = generated
	} else {
		exists, err := l.accounts.Exists(ctx, accountNumber)
		if err != nil {
			return domain.Account{}, fmt.Errorf("check account number: %w", err)
		}
		if exists {
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
	}

	count, err := l.accounts.CountByOwner(ctx, spec.OwnerID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("count owner accounts: %w", err)
	}
	if count >= maxAccountsPerOwner {
		return domain.Account{}, domain.ErrAccountLimitExceeded
	}

	if spec.Type == domain.AccountTypeTermDeposit {
		holdsOne, err := l.accounts.ExistsByOwnerAndType(ctx, spec.OwnerID, domain.AccountTypeTermDeposit)
		if err != nil {
			return domain.Account{}, fmt.Errorf("check term deposit: %w", err)
		}
		if holdsOne {
			return domain.Account{}, domain.ErrDuplicateTermDeposit
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(spec.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountNumber:     accountNumber,
		OwnerID:           strings.TrimSpace(spec.OwnerID),
		OwnerName:         strings.TrimSpace(spec.OwnerName),
		Type:              spec.Type,
		Status:            domain.AccountStatusActive,
		AvailableBalance:  spec.InitialBalance,
		BookBalance:       spec.InitialBalance,
		OverdraftLimit:    spec.OverdraftLimit,
		Currency:          currency,
		Branch:            strings.TrimSpace(spec.Branch),
		Officer:           strings.TrimSpace(spec.Officer),
		DebitAllowed:      true,
		CreditAllowed:     true,
		StatementsEnabled: true,
		InactivityDays:    0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := l.accounts.Create(ctx, account)
	if err != nil {
		logger.Error("account ledger open failed", err, logger.Fields{
			"accountNumber": accountNumber,
			"ownerId":       spec.OwnerID,
		})
		return domain.Account{}, err
	}

	logger.Info("account ledger open success", logger.Fields{
		"accountId":     created.ID,
		"accountNumber": created.AccountNumber,
	})
	return created, nil
}

func (l *AccountLedger) Get(ctx context.Context, accountNumber string) (domain.Account, error) {
	return l.accounts.Get(ctx, strings.TrimSpace(accountNumber))
}

func (l *AccountLedger) ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	return l.accounts.ListByOwner(ctx, strings.TrimSpace(ownerID))
}

// AvailableBalance is the balance-inquiry operation used by statement and
// teller surfaces.
func (l *AccountLedger) AvailableBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	account, err := l.accounts.Get(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return decimal.Zero, err
	}
	return account.AvailableBalance, nil
}

func (l *AccountLedger) Block(ctx context.Context, accountNumber string) (domain.Account, error) {
	return l.transition(ctx, accountNumber, domain.AccountStatusActive, domain.AccountStatusBlocked)
}

func (l *AccountLedger) Unblock(ctx context.Context, accountNumber string) (domain.Account, error) {
	return l.transition(ctx, accountNumber, domain.AccountStatusBlocked, domain.AccountStatusActive)
}

func (l *AccountLedger) transition(ctx context.Context, accountNumber string, from, to domain.AccountStatus) (domain.Account, error) {
	logger.Info("account ledger state transition", logger.Fields{
		"accountNumber": accountNumber,
		"from":          from,
		"to":            to,
	})

	account, err := l.accounts.Get(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return domain.Account{}, err
	}
	if account.Status != from {
		return domain.Account{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStateTransition, account.Status, to)
	}

	account.Status = to
	account.UpdatedAt = time.Now().UTC()

	saved, err := l.accounts.Save(ctx, account)
	if err != nil {
		logger.Error("account ledger state transition failed", err, logger.Fields{
			"accountNumber": accountNumber,
			"to":            to,
		})
		return domain.Account{}, err
	}
	return saved, nil
}

// applyMovement mutates balances in memory. The caller must have verified
// eligibility and must persist the account and the journal entry as one
// commit unit; it is not safe to call outside that path.
func (l *AccountLedger) applyMovement(account *domain.Account, amount decimal.Decimal, kind domain.MovementKind) {
	account.ApplyMovement(amount, kind)
}
