package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

const movementColumns = `
id, account_number, voucher_number, kind, amount, balance_before,
balance_after, concept, description, branch, teller, channel,
external_reference, notes, processed, reversed, reversal_id, posted_at,
value_at`

const movementDefaultPageSize = 50

type MovementStore struct {
	db *sql.DB
}

func NewMovementStore(db *sql.DB) *MovementStore {
	return &MovementStore{db: db}
}

func (s *MovementStore) Create(ctx context.Context, movement domain.Movement) (domain.Movement, error) {
	logger.Info("movement store create", logger.Fields{
		"accountNumber": movement.AccountNumber,
		"voucherNumber": movement.VoucherNumber,
		"kind":          movement.Kind,
		"amount":        movement.Amount,
	})

	const query = `
INSERT INTO movements (
	account_number, voucher_number, kind, amount, balance_before,
	balance_after, concept, description, branch, teller, channel,
	external_reference, notes, processed, reversed, posted_at, value_at
) VALUES (
	$1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10, $11,
	$12, $13, $14, $15, $16, $17
)
RETURNING id`

	if err := s.db.QueryRowContext(
		ctx,
		query,
		movement.AccountNumber,
		movement.VoucherNumber,
		movement.Kind,
		movement.Amount.StringFixed(2),
		movement.BalanceBefore.StringFixed(2),
		movement.BalanceAfter.StringFixed(2),
		movement.Concept,
		movement.Description,
		movement.Branch,
		movement.Teller,
		movement.Channel,
		movement.ExternalReference,
		movement.Notes,
		movement.Processed,
		movement.Reversed,
		movement.PostedAt,
		movement.ValueAt,
	).Scan(&movement.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.Movement{}, domain.ErrDuplicateVoucher
		}
		logger.Error("movement store create failed", err, logger.Fields{
			"voucherNumber": movement.VoucherNumber,
		})
		return domain.Movement{}, fmt.Errorf("create movement: %w", err)
	}

	return movement, nil
}

func (s *MovementStore) Get(ctx context.Context, voucherNumber string) (domain.Movement, error) {
	const query = `SELECT ` + movementColumns + ` FROM movements WHERE voucher_number = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, voucherNumber))
}

func (s *MovementStore) GetByID(ctx context.Context, id string) (domain.Movement, error) {
	const query = `SELECT ` + movementColumns + ` FROM movements WHERE id::text = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *MovementStore) Exists(ctx context.Context, voucherNumber string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM movements WHERE voucher_number = $1)`
	if err := s.db.QueryRowContext(ctx, query, voucherNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check movement exists: %w", err)
	}
	return exists, nil
}

func (s *MovementStore) ListByAccount(ctx context.Context, accountNumber string, filter domain.MovementFilter) ([]domain.Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = movementDefaultPageSize
	}

	const query = `
SELECT ` + movementColumns + `
FROM movements
WHERE account_number = $1
  AND ($2 = '' OR kind = $2)
  AND ($3::timestamptz IS NULL OR posted_at >= $3)
  AND ($4::timestamptz IS NULL OR posted_at <= $4)
ORDER BY posted_at DESC
LIMIT $5 OFFSET $6`

	var from, to sql.NullTime
	if !filter.From.IsZero() {
		from = sql.NullTime{Time: filter.From, Valid: true}
	}
	if !filter.To.IsZero() {
		to = sql.NullTime{Time: filter.To, Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, query, accountNumber, string(filter.Kind), from, to, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.Movement, 0)
	for rows.Next() {
		movement, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}

func (s *MovementStore) LatestByAccount(ctx context.Context, accountNumber string) (domain.Movement, error) {
	const query = `
SELECT ` + movementColumns + `
FROM movements
WHERE account_number = $1
ORDER BY posted_at DESC
LIMIT 1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, accountNumber))
}

func (s *MovementStore) CountByAccount(ctx context.Context, accountNumber string) (int64, error) {
	var count int64
	const query = `SELECT COUNT(1) FROM movements WHERE account_number = $1`
	if err := s.db.QueryRowContext(ctx, query, accountNumber).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return count, nil
}

// MarkReversed is the only permitted mutation of a persisted movement; the
// guard on reversed = FALSE makes a second reversal attempt fail cleanly.
func (s *MovementStore) MarkReversed(ctx context.Context, voucherNumber string, reversalID string) error {
	const query = `
UPDATE movements
SET reversed = TRUE,
    reversal_id = $2,
    notes = 'movement reversed'
WHERE voucher_number = $1
  AND reversed = FALSE`

	result, err := s.db.ExecContext(ctx, query, voucherNumber, reversalID)
	if err != nil {
		logger.Error("movement store mark reversed failed", err, logger.Fields{
			"voucherNumber": voucherNumber,
		})
		return fmt.Errorf("mark movement reversed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark movement reversed rows affected: %w", err)
	}
	if rows == 0 {
		exists, existsErr := s.Exists(ctx, voucherNumber)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return domain.ErrAlreadyReversed
		}
		return domain.ErrMovementNotFound
	}

	return nil
}

func (s *MovementStore) scanOne(row *sql.Row) (domain.Movement, error) {
	movement, err := s.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Movement{}, domain.ErrMovementNotFound
	}
	return movement, err
}

func (s *MovementStore) scanRow(row rowScanner) (domain.Movement, error) {
	var (
		movement      domain.Movement
		amount        string
		balanceBefore string
		balanceAfter  string
		description   sql.NullString
		branch        sql.NullString
		teller        sql.NullString
		channel       sql.NullString
		externalRef   sql.NullString
		notes         sql.NullString
		reversalID    sql.NullString
	)

	if err := row.Scan(
		&movement.ID,
		&movement.AccountNumber,
		&movement.VoucherNumber,
		&movement.Kind,
		&amount,
		&balanceBefore,
		&balanceAfter,
		&movement.Concept,
		&description,
		&branch,
		&teller,
		&channel,
		&externalRef,
		&notes,
		&movement.Processed,
		&movement.Reversed,
		&reversalID,
		&movement.PostedAt,
		&movement.ValueAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Movement{}, err
		}
		return domain.Movement{}, fmt.Errorf("scan movement: %w", err)
	}

	movement.Description = description.String
	movement.Branch = branch.String
	movement.Teller = teller.String
	movement.Channel = channel.String
	movement.ExternalReference = externalRef.String
	movement.Notes = notes.String
	movement.ReversalID = reversalID.String

	var err error
	if movement.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Movement{}, fmt.Errorf("parse movement amount: %w", err)
	}
	if movement.BalanceBefore, err = decimal.NewFromString(balanceBefore); err != nil {
		return domain.Movement{}, fmt.Errorf("parse balance before: %w", err)
	}
	if movement.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
		return domain.Movement{}, fmt.Errorf("parse balance after: %w", err)
	}

	return movement, nil
}
