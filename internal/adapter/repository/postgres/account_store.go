package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const accountColumns = `
id, account_number, owner_id, owner_name, account_type, status,
available_balance, book_balance, overdraft_limit, currency, branch, officer,
debit_allowed, credit_allowed, statements_enabled, inactivity_days, version,
created_at, updated_at`

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account store create", logger.Fields{
		"accountNumber": account.AccountNumber,
		"ownerId":       account.OwnerID,
		"accountType":   account.Type,
	})

	const query = `
INSERT INTO accounts (
	account_number, owner_id, owner_name, account_type, status,
	available_balance, book_balance, overdraft_limit, currency, branch, officer,
	debit_allowed, credit_allowed, statements_enabled, inactivity_days
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
RETURNING id, version, created_at, updated_at`

	if err := s.db.QueryRowContext(
		ctx,
		query,
		account.AccountNumber,
		account.OwnerID,
		account.OwnerName,
		account.Type,
		account.Status,
		account.AvailableBalance.StringFixed(2),
		account.BookBalance.StringFixed(2),
		account.OverdraftLimit.StringFixed(2),
		account.Currency,
		account.Branch,
		account.Officer,
		account.DebitAllowed,
		account.CreditAllowed,
		account.StatementsEnabled,
		account.InactivityDays,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
		logger.Error("account store create failed", err, logger.Fields{
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (s *AccountStore) Get(ctx context.Context, accountNumber string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, accountNumber))
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id::text = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *AccountStore) Exists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`
	if err := s.db.QueryRowContext(ctx, query, accountNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

func (s *AccountStore) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	const query = `SELECT COUNT(1) FROM accounts WHERE owner_id = $1`
	if err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count owner accounts: %w", err)
	}
	return count, nil
}

func (s *AccountStore) ExistsByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE owner_id = $1 AND account_type = $2)`
	if err := s.db.QueryRowContext(ctx, query, ownerID, accountType).Scan(&exists); err != nil {
		return false, fmt.Errorf("check owner account type: %w", err)
	}
	return exists, nil
}

func (s *AccountStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list owner accounts: %w", err)
	}

	return accounts, nil
}

// Save is a compare-and-swap: the update applies only when the stored version
// still matches the one the caller read, and advances it by one.
func (s *AccountStore) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	const query = `
UPDATE accounts
SET owner_name = $3,
    status = $4,
    available_balance = $5::numeric,
    book_balance = $6::numeric,
    overdraft_limit = $7::numeric,
    branch = $8,
    officer = $9,
    debit_allowed = $10,
    credit_allowed = $11,
    statements_enabled = $12,
    inactivity_days = $13,
    version = version + 1,
    updated_at = NOW()
WHERE account_number = $1
  AND version = $2
RETURNING version, updated_at`

	err := s.db.QueryRowContext(
		ctx,
		query,
		account.AccountNumber,
		account.Version,
		account.OwnerName,
		account.Status,
		account.AvailableBalance.StringFixed(2),
		account.BookBalance.StringFixed(2),
		account.OverdraftLimit.StringFixed(2),
		account.Branch,
		account.Officer,
		account.DebitAllowed,
		account.CreditAllowed,
		account.StatementsEnabled,
		account.InactivityDays,
	).Scan(&account.Version, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		exists, existsErr := s.Exists(ctx, account.AccountNumber)
		if existsErr != nil {
			return domain.Account{}, existsErr
		}
		if exists {
			return domain.Account{}, domain.ErrConcurrentModification
		}
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		logger.Error("account store save failed", err, logger.Fields{
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("save account: %w", err)
	}

	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *AccountStore) scanOne(row *sql.Row) (domain.Account, error) {
	account, err := s.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, err
}

func (s *AccountStore) scanRow(row rowScanner) (domain.Account, error) {
	var (
		account   domain.Account
		available string
		book      string
		overdraft string
		ownerName sql.NullString
		branch    sql.NullString
		officer   sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.OwnerID,
		&ownerName,
		&account.Type,
		&account.Status,
		&available,
		&book,
		&overdraft,
		&account.Currency,
		&branch,
		&officer,
		&account.DebitAllowed,
		&account.CreditAllowed,
		&account.StatementsEnabled,
		&account.InactivityDays,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, err
		}
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}

	account.OwnerName = ownerName.String
	account.Branch = branch.String
	account.Officer = officer.String

	var err error
	if account.AvailableBalance, err = decimal.NewFromString(available); err != nil {
		return domain.Account{}, fmt.Errorf("parse available balance: %w", err)
	}
	if account.BookBalance, err = decimal.NewFromString(book); err != nil {
		return domain.Account{}, fmt.Errorf("parse book balance: %w", err)
	}
	if account.OverdraftLimit, err = decimal.NewFromString(overdraft); err != nil {
		return domain.Account{}, fmt.Errorf("parse overdraft limit: %w", err)
	}

	return account, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
