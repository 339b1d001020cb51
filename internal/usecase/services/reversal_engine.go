package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
)

const reversalConceptPrefix = "REVERSAL - "

// ReversalEngine builds and commits compensating movements. A reversal uses
// the same posting path as any other movement, so it is subject to the same
// balance and state rules as the original.
type ReversalEngine struct {
	movements domain.MovementStore
	processor *TransactionProcessor
	ids       *IdentifierGenerator
}

func NewReversalEngine(movements domain.MovementStore, processor *TransactionProcessor, ids *IdentifierGenerator) *ReversalEngine {
	return &ReversalEngine{
		movements: movements,
		processor: processor,
		ids:       ids,
	}
}

// Reverse posts a compensating movement of opposite kind and equal amount for
// the movement identified by voucherNumber, then links the original to it.
// The compensating entry reads the current balance, not the balance at the
// time of the original movement.
func (e *ReversalEngine) Reverse(ctx context.Context, voucherNumber, reason string) (domain.Movement, error) {
	voucherNumber = strings.TrimSpace(voucherNumber)
	logger.Info("reversal engine reverse request", logger.Fields{
		"voucherNumber": voucherNumber,
		"reason":        reason,
	})

	original, err := e.movements.Get(ctx, voucherNumber)
	if err != nil {
		return domain.Movement{}, err
	}
	if original.Reversed {
		return domain.Movement{}, fmt.Errorf("%w: voucher %s", domain.ErrAlreadyReversed, voucherNumber)
	}

	reversalVoucher, err := e.ids.NextVoucherNumber(ctx)
	if err != nil {
		return domain.Movement{}, err
	}

	description := fmt.Sprintf("Reversal of movement %s", voucherNumber)
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		description += " - " + trimmed
	}

	reversal, err := e.processor.Post(ctx, PostMovementRequest{
		AccountNumber:     original.AccountNumber,
		VoucherNumber:     reversalVoucher,
		Kind:              original.Kind.Opposite(),
		Amount:            original.Amount,
		Concept:           reversalConceptPrefix + original.Concept,
		Description:       description,
		Branch:            original.Branch,
		Channel:           original.Channel,
		ExternalReference: voucherNumber,
	})
	if err != nil {
		// A reversal can legitimately fail the balance or state checks.
		logger.Error("reversal engine compensating post failed", err, logger.Fields{
			"voucherNumber": voucherNumber,
		})
		return domain.Movement{}, err
	}

	if err := e.movements.MarkReversed(ctx, voucherNumber, reversal.ID); err != nil {
		// The compensating movement stands; only the backward link is
		// missing. Surface it for reconciliation instead of retrying.
		logger.Error("reversal engine link persist failed", err, logger.Fields{
			"voucherNumber":   voucherNumber,
			"reversalVoucher": reversal.VoucherNumber,
		})
		return reversal, fmt.Errorf("%w: original %s, reversal %s: %v",
			domain.ErrReversalLinkFailure, voucherNumber, reversal.VoucherNumber, err)
	}

	logger.Info("reversal engine reverse success", logger.Fields{
		"voucherNumber":   voucherNumber,
		"reversalVoucher": reversal.VoucherNumber,
	})
	return reversal, nil
}
