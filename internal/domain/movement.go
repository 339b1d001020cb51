package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementKind string

const (
	MovementKindDebit  MovementKind = "DEBIT"
	MovementKindCredit MovementKind = "CREDIT"
)

func (k MovementKind) Valid() bool {
	return k == MovementKindDebit || k == MovementKindCredit
}

// Opposite returns the compensating kind for a reversal entry.
func (k MovementKind) Opposite() MovementKind {
	if k == MovementKindDebit {
		return MovementKindCredit
	}
	return MovementKindDebit
}

type Movement struct {
	ID                string
	AccountNumber     string
	VoucherNumber     string
	Kind              MovementKind
	Amount            decimal.Decimal
	BalanceBefore     decimal.Decimal
	BalanceAfter      decimal.Decimal
	Concept           string
	Description       string
	Branch            string
	Teller            string
	Channel           string
	ExternalReference string
	Notes             string
	Processed         bool
	Reversed          bool
	ReversalID        string
	PostedAt          time.Time
	ValueAt           time.Time
}

// NewMovement builds an unprocessed journal entry and derives the posterior
// balance from the prior balance and the kind. Amount must already be
// validated as strictly positive.
func NewMovement(accountNumber, voucherNumber string, kind MovementKind, amount, balanceBefore decimal.Decimal, concept string) Movement {
	now := time.Now().UTC()
	m := Movement{
		AccountNumber: accountNumber,
		VoucherNumber: voucherNumber,
		Kind:          kind,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		Concept:       concept,
		PostedAt:      now,
		ValueAt:       now,
	}
	if kind == MovementKindDebit {
		m.BalanceAfter = balanceBefore.Sub(amount)
	} else {
		m.BalanceAfter = balanceBefore.Add(amount)
	}
	return m
}

// MarkProcessed flags the entry as committed and stamps the value date.
func (m *Movement) MarkProcessed() {
	m.Processed = true
	m.ValueAt = time.Now().UTC()
}

// MarkReversed records the forward link to the compensating movement. The
// monetary fields stay untouched; a movement is reversed at most once.
func (m *Movement) MarkReversed(reversalID string) {
	m.Reversed = true
	m.ReversalID = reversalID
	m.Notes = "movement reversed"
}
