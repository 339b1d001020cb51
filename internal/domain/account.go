package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings     AccountType = "SAVINGS"
	AccountTypeChecking    AccountType = "CHECKING"
	AccountTypeTermDeposit AccountType = "TERM_DEPOSIT"
	AccountTypeSight       AccountType = "SIGHT"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking, AccountTypeTermDeposit, AccountTypeSight:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusBlocked  AccountStatus = "BLOCKED"
	AccountStatusClosed   AccountStatus = "CLOSED"
)

type Account struct {
	ID                string
	AccountNumber     string
	OwnerID           string
	OwnerName         string
	Type              AccountType
	Status            AccountStatus
	AvailableBalance  decimal.Decimal
	BookBalance       decimal.Decimal
	OverdraftLimit    decimal.Decimal
	Currency          string
	Branch            string
	Officer           string
	DebitAllowed      bool
	CreditAllowed     bool
	StatementsEnabled bool
	InactivityDays    int
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanDebit reports whether a debit of amount can be posted: the account must
// be active, debit-enabled, and the amount must fit within the available
// balance plus the overdraft headroom.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	if !a.DebitAllowed || a.Status != AccountStatusActive {
		return false
	}
	headroom := a.AvailableBalance.Add(a.OverdraftLimit)
	return headroom.GreaterThanOrEqual(amount)
}

// CanCredit reports whether the account accepts credits.
func (a *Account) CanCredit() bool {
	return a.CreditAllowed && a.Status == AccountStatusActive
}

// ApplyMovement moves the available and book balances by the same delta and
// resets the inactivity counter. Eligibility must have been checked by the
// caller; this method does not re-validate.
func (a *Account) ApplyMovement(amount decimal.Decimal, kind MovementKind) {
	if kind == MovementKindDebit {
		a.AvailableBalance = a.AvailableBalance.Sub(amount)
		a.BookBalance = a.BookBalance.Sub(amount)
	} else {
		a.AvailableBalance = a.AvailableBalance.Add(amount)
		a.BookBalance = a.BookBalance.Add(amount)
	}
	a.InactivityDays = 0
	a.UpdatedAt = time.Now().UTC()
}
