package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/api-sage/core-banking-ledger/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusForError maps the ledger's error kinds onto HTTP statuses. Anything
// unmatched is a transport or programming failure and reads as a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrMovementNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccountNumber),
		errors.Is(err, domain.ErrDuplicateVoucher),
		errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAccountNotActive),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrAccountLimitExceeded),
		errors.Is(err, domain.ErrDuplicateTermDeposit),
		errors.Is(err, domain.ErrAlreadyReversed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// messageForError is the short human-readable label for the envelope; the
// wrapped error text carries the parameters (account, amounts, state).
func messageForError(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, domain.ErrMovementNotFound):
		return "Movement not found"
	case errors.Is(err, domain.ErrDuplicateAccountNumber):
		return "Account number already exists"
	case errors.Is(err, domain.ErrDuplicateVoucher):
		return "Voucher number already exists"
	case errors.Is(err, domain.ErrAccountLimitExceeded):
		return "Account limit exceeded"
	case errors.Is(err, domain.ErrDuplicateTermDeposit):
		return "Owner already holds a term deposit"
	case errors.Is(err, domain.ErrAccountNotActive):
		return "Account is not active"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "Invalid state transition"
	case errors.Is(err, domain.ErrAlreadyReversed):
		return "Movement already reversed"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "Account is busy, retry the operation"
	case errors.Is(err, domain.ErrJournalWriteFailed),
		errors.Is(err, domain.ErrReversalLinkFailure):
		return "Posting incomplete, manual reconciliation required"
	case errors.Is(err, domain.ErrIdentifierExhausted):
		return "Could not allocate an identifier"
	default:
		return "Unable to process the request right now"
	}
}
