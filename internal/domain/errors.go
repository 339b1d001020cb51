package domain

import "errors"

// Business-rule failures surfaced to callers. Store adapters translate their
// native failure modes (sql.ErrNoRows, pq unique violations, CAS misses) into
// these; everything else is wrapped and passed through as a transport error.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrMovementNotFound       = errors.New("movement not found")
	ErrDuplicateAccountNumber = errors.New("account number already exists")
	ErrDuplicateVoucher       = errors.New("voucher number already exists")
	ErrAccountLimitExceeded   = errors.New("owner already holds the maximum number of accounts")
	ErrDuplicateTermDeposit   = errors.New("owner already holds a term deposit account")
	ErrAccountNotActive       = errors.New("account is not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidStateTransition = errors.New("invalid account state transition")
	ErrAlreadyReversed        = errors.New("movement is already reversed")
	ErrConcurrentModification = errors.New("account was modified concurrently")
	ErrJournalWriteFailed     = errors.New("journal entry could not be persisted after the balance update")
	ErrReversalLinkFailure    = errors.New("reversal posted but the original movement link could not be persisted")
	ErrIdentifierExhausted    = errors.New("identifier generation attempts exhausted")
)
