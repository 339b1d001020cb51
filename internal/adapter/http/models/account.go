package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type OpenAccountRequest struct {
	AccountNumber  string `json:"accountNumber,omitempty"`
	OwnerID        string `json:"ownerId"`
	OwnerName      string `json:"ownerName"`
	AccountType    string `json:"accountType"`
	InitialBalance string `json:"initialBalance,omitempty"`
	OverdraftLimit string `json:"overdraftLimit,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Branch         string `json:"branch,omitempty"`
	Officer        string `json:"officer,omitempty"`
}

func (r OpenAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.OwnerID) == "" {
		errs = append(errs, "ownerId is required")
	}

	if !domain.AccountType(strings.TrimSpace(r.AccountType)).Valid() {
		errs = append(errs, "accountType must be one of SAVINGS, CHECKING, TERM_DEPOSIT, SIGHT")
	}

	if number := strings.TrimSpace(r.AccountNumber); number != "" && !isTenDigitAccountNumber(number) {
		errs = append(errs, "accountNumber must be exactly 10 digits")
	}

	if raw := strings.TrimSpace(r.InitialBalance); raw != "" {
		if amount, err := decimal.NewFromString(raw); err != nil || amount.IsNegative() {
			errs = append(errs, "initialBalance must be a non-negative number")
		}
	}

	if raw := strings.TrimSpace(r.OverdraftLimit); raw != "" {
		if amount, err := decimal.NewFromString(raw); err != nil || amount.IsNegative() {
			errs = append(errs, "overdraftLimit must be a non-negative number")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Amounts returns the parsed optional monetary fields, zero when absent.
// Validate must have been called first.
func (r OpenAccountRequest) Amounts() (initial, overdraft decimal.Decimal) {
	if raw := strings.TrimSpace(r.InitialBalance); raw != "" {
		initial, _ = decimal.NewFromString(raw)
	}
	if raw := strings.TrimSpace(r.OverdraftLimit); raw != "" {
		overdraft, _ = decimal.NewFromString(raw)
	}
	return initial, overdraft
}

type AccountResponse struct {
	ID                string `json:"id"`
	AccountNumber     string `json:"accountNumber"`
	OwnerID           string `json:"ownerId"`
	OwnerName         string `json:"ownerName,omitempty"`
	AccountType       string `json:"accountType"`
	Status            string `json:"status"`
	AvailableBalance  string `json:"availableBalance"`
	BookBalance       string `json:"bookBalance"`
	OverdraftLimit    string `json:"overdraftLimit"`
	Currency          string `json:"currency"`
	Branch            string `json:"branch,omitempty"`
	Officer           string `json:"officer,omitempty"`
	DebitAllowed      bool   `json:"debitAllowed"`
	CreditAllowed     bool   `json:"creditAllowed"`
	StatementsEnabled bool   `json:"statementsEnabled"`
	InactivityDays    int    `json:"inactivityDays"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func NewAccountResponse(account domain.Account) AccountResponse {
	return AccountResponse{
		ID:                account.ID,
		AccountNumber:     account.AccountNumber,
		OwnerID:           account.OwnerID,
		OwnerName:         account.OwnerName,
		AccountType:       string(account.Type),
		Status:            string(account.Status),
		AvailableBalance:  account.AvailableBalance.StringFixed(2),
		BookBalance:       account.BookBalance.StringFixed(2),
		OverdraftLimit:    account.OverdraftLimit.StringFixed(2),
		Currency:          account.Currency,
		Branch:            account.Branch,
		Officer:           account.Officer,
		DebitAllowed:      account.DebitAllowed,
		CreditAllowed:     account.CreditAllowed,
		StatementsEnabled: account.StatementsEnabled,
		InactivityDays:    account.InactivityDays,
		CreatedAt:         account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         account.UpdatedAt.Format(time.RFC3339),
	}
}

type BalanceResponse struct {
	AccountNumber    string `json:"accountNumber"`
	AvailableBalance string `json:"availableBalance"`
	AsOf             string `json:"asOf"`
}

func isTenDigitAccountNumber(accountNumber string) bool {
	if len(accountNumber) != 10 {
		return false
	}

	for _, ch := range accountNumber {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
