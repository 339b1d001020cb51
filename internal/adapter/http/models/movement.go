package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type PostMovementRequest struct {
	AccountNumber     string `json:"accountNumber"`
	VoucherNumber     string `json:"voucherNumber,omitempty"`
	Kind              string `json:"kind"`
	Amount            string `json:"amount"`
	Concept           string `json:"concept"`
	Description       string `json:"description,omitempty"`
	Branch            string `json:"branch,omitempty"`
	Teller            string `json:"teller,omitempty"`
	Channel           string `json:"channel,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

func (r PostMovementRequest) Validate() error {
	var errs []string

	if !isTenDigitAccountNumber(strings.TrimSpace(r.AccountNumber)) {
		errs = append(errs, "accountNumber must be exactly 10 digits")
	}

	if !domain.MovementKind(strings.TrimSpace(r.Kind)).Valid() {
		errs = append(errs, "kind must be DEBIT or CREDIT")
	}

	if amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount)); err != nil || !amount.IsPositive() {
		errs = append(errs, "amount must be a number greater than zero")
	}

	if strings.TrimSpace(r.Concept) == "" {
		errs = append(errs, "concept is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

type ReverseMovementRequest struct {
	Reason string `json:"reason"`
}

func (r ReverseMovementRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required")
	}
	return nil
}

type MovementResponse struct {
	ID                string `json:"id"`
	AccountNumber     string `json:"accountNumber"`
	VoucherNumber     string `json:"voucherNumber"`
	Kind              string `json:"kind"`
	Amount            string `json:"amount"`
	BalanceBefore     string `json:"balanceBefore"`
	BalanceAfter      string `json:"balanceAfter"`
	Concept           string `json:"concept"`
	Description       string `json:"description,omitempty"`
	Branch            string `json:"branch,omitempty"`
	Teller            string `json:"teller,omitempty"`
	Channel           string `json:"channel,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
	Notes             string `json:"notes,omitempty"`
	Processed         bool   `json:"processed"`
	Reversed          bool   `json:"reversed"`
	ReversalID        string `json:"reversalId,omitempty"`
	PostedAt          string `json:"postedAt"`
	ValueAt           string `json:"valueAt"`
}

func NewMovementResponse(movement domain.Movement) MovementResponse {
	return MovementResponse{
		ID:                movement.ID,
		AccountNumber:     movement.AccountNumber,
		VoucherNumber:     movement.VoucherNumber,
		Kind:              string(movement.Kind),
		Amount:            movement.Amount.StringFixed(2),
		BalanceBefore:     movement.BalanceBefore.StringFixed(2),
		BalanceAfter:      movement.BalanceAfter.StringFixed(2),
		Concept:           movement.Concept,
		Description:       movement.Description,
		Branch:            movement.Branch,
		Teller:            movement.Teller,
		Channel:           movement.Channel,
		ExternalReference: movement.ExternalReference,
		Notes:             movement.Notes,
		Processed:         movement.Processed,
		Reversed:          movement.Reversed,
		ReversalID:        movement.ReversalID,
		PostedAt:          movement.PostedAt.Format(time.RFC3339),
		ValueAt:           movement.ValueAt.Format(time.RFC3339),
	}
}

func NewMovementResponses(movements []domain.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movements))
	for _, movement := range movements {
		out = append(out, NewMovementResponse(movement))
	}
	return out
}
