package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

// AccountStore applies balance deltas with a single conditional UPDATE and
// journals each one in account_mutations under its idempotency key, inside the
// same transaction.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Create inserts an account and returns it with the generated id.
func (s *AccountStore) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account store create", logger.Fields{
		"customerId":    account.CustomerID,
		"accountNumber": account.AccountNumber,
	})

	if account.Status == "" {
		account.Status = domain.AccountStatusActive
	}

	const query = `
INSERT INTO accounts (
	customer_id,
	account_number,
	balance,
	status
) VALUES ($1, $2, $3::numeric, $4)
RETURNING id, customer_id, account_number, balance, status, created_at, updated_at`

	var created domain.Account
	if err := scanAccount(s.db.QueryRowContext(
		ctx,
		query,
		account.CustomerID,
		account.AccountNumber,
		account.Balance.String(),
		account.Status,
	), &created); err != nil {
		logger.Error("account store create failed", err, logger.Fields{
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return created, nil
}

func (s *AccountStore) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	logger.Info("account store get by id", logger.Fields{
		"accountId": accountID,
	})

	const query = `
SELECT id, customer_id, account_number, balance, status, created_at, updated_at
FROM accounts
WHERE id = $1`

	var account domain.Account
	if err := scanAccount(s.db.QueryRowContext(ctx, query, accountID), &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account store record not found", logger.Fields{
				"accountId": accountID,
			})
			return domain.Account{}, commons.ErrRecordNotFound
		}
		logger.Error("account store get by id failed", err, logger.Fields{
			"accountId": accountID,
		})
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	return account, nil
}

func (s *AccountStore) GetAccountByNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	logger.Info("account store get by account number", logger.Fields{
		"accountNumber": accountNumber,
	})

	const query = `
SELECT id, customer_id, account_number, balance, status, created_at, updated_at
FROM accounts
WHERE account_number = $1`

	var account domain.Account
	if err := scanAccount(s.db.QueryRowContext(ctx, query, accountNumber), &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account store record not found", logger.Fields{
				"accountNumber": accountNumber,
			})
			return domain.Account{}, commons.ErrRecordNotFound
		}
		logger.Error("account store get by account number failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return domain.Account{}, fmt.Errorf("get account by account number: %w", err)
	}

	return account, nil
}

func (s *AccountStore) Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	const query = `
UPDATE accounts
SET balance = balance + $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND status = 'ACTIVE'
RETURNING balance`

	return s.mutate(ctx, domain.MutationCredit, query, accountID, amount, idempotencyKey)
}

func (s *AccountStore) Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	const query = `
UPDATE accounts
SET balance = balance - $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND status = 'ACTIVE'
  AND balance >= $2::numeric
RETURNING balance`

	return s.mutate(ctx, domain.MutationDebit, query, accountID, amount, idempotencyKey)
}

func (s *AccountStore) GetMutation(ctx context.Context, idempotencyKey string) (domain.Mutation, error) {
	logger.Info("account store get mutation", logger.Fields{
		"idempotencyKey": idempotencyKey,
	})

	mutation, err := getMutation(ctx, s.db, idempotencyKey)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.Mutation{}, err
		}
		logger.Error("account store get mutation failed", err, logger.Fields{
			"idempotencyKey": idempotencyKey,
		})
		return domain.Mutation{}, err
	}

	return mutation, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getMutation(ctx context.Context, q queryRower, idempotencyKey string) (domain.Mutation, error) {
	const query = `
SELECT idempotency_key, account_id, direction, amount, balance_after, created_at
FROM account_mutations
WHERE idempotency_key = $1`

	var mutation domain.Mutation
	if err := q.QueryRowContext(ctx, query, idempotencyKey).Scan(
		&mutation.IdempotencyKey,
		&mutation.AccountID,
		&mutation.Direction,
		&mutation.Amount,
		&mutation.BalanceAfter,
		&mutation.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Mutation{}, commons.ErrRecordNotFound
		}
		return domain.Mutation{}, fmt.Errorf("get account mutation: %w", err)
	}

	return mutation, nil
}

func (s *AccountStore) mutate(ctx context.Context, direction domain.MutationDirection, updateQuery string, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	fields := logger.Fields{
		"accountId":      accountID,
		"direction":      direction,
		"amount":         amount.String(),
		"idempotencyKey": idempotencyKey,
	}
	logger.Info("account store mutate", fields)

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return decimal.Zero, fmt.Errorf("idempotency key is required")
	}

	balance, err := s.mutateOnce(ctx, direction, updateQuery, accountID, amount, idempotencyKey)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		// A concurrent call with the same key won; its journal entry decides.
		balance, err = s.replay(ctx, s.db, direction, accountID, amount, idempotencyKey)
	}
	if err != nil {
		if isStoreRejection(err) {
			logger.Info("account store mutate rejected", logger.Fields{
				"accountId":      accountID,
				"idempotencyKey": idempotencyKey,
				"reason":         err.Error(),
			})
		} else {
			logger.Error("account store mutate failed", err, fields)
		}
		return decimal.Zero, err
	}

	logger.Info("account store mutate success", logger.Fields{
		"accountId":      accountID,
		"direction":      direction,
		"idempotencyKey": idempotencyKey,
		"balance":        balance.String(),
	})
	return balance, nil
}

func (s *AccountStore) mutateOnce(ctx context.Context, direction domain.MutationDirection, updateQuery string, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin mutation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	balance, err := s.replay(ctx, tx, direction, accountID, amount, idempotencyKey)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, commons.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	if err := tx.QueryRowContext(ctx, updateQuery, accountID, amount.String()).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, s.explainRejection(ctx, tx, direction, accountID)
		}
		return decimal.Zero, fmt.Errorf("update account balance: %w", err)
	}

	const journal = `
INSERT INTO account_mutations (
	idempotency_key,
	account_id,
	direction,
	amount,
	balance_after
) VALUES ($1, $2, $3, $4::numeric, $5::numeric)`

	if _, err := tx.ExecContext(ctx, journal, idempotencyKey, accountID, direction, amount.String(), balance.String()); err != nil {
		return decimal.Zero, fmt.Errorf("journal account mutation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit mutation tx: %w", err)
	}

	return balance, nil
}

// replay returns the recorded balance when the key was already applied with
// the same parameters, ErrIdempotencyConflict when it was applied with
// different ones, and ErrRecordNotFound when it was never applied.
func (s *AccountStore) replay(ctx context.Context, q queryRower, direction domain.MutationDirection, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	existing, err := getMutation(ctx, q, idempotencyKey)
	if err != nil {
		return decimal.Zero, err
	}
	if existing.AccountID != accountID || existing.Direction != direction || !existing.Amount.Equal(amount) {
		return decimal.Zero, commons.ErrIdempotencyConflict
	}
	return existing.BalanceAfter, nil
}

func (s *AccountStore) explainRejection(ctx context.Context, tx *sql.Tx, direction domain.MutationDirection, accountID string) error {
	const query = `SELECT status FROM accounts WHERE id = $1`

	var status domain.AccountStatus
	if err := tx.QueryRowContext(ctx, query, accountID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return commons.ErrRecordNotFound
		}
		return fmt.Errorf("inspect rejected mutation: %w", err)
	}
	if status != domain.AccountStatusActive {
		return commons.ErrAccountNotActive
	}
	if direction == domain.MutationDebit {
		return commons.ErrInsufficientBalance
	}
	return fmt.Errorf("credit on account %s affected no rows", accountID)
}

func isStoreRejection(err error) bool {
	return errors.Is(err, commons.ErrRecordNotFound) ||
		errors.Is(err, commons.ErrAccountNotActive) ||
		errors.Is(err, commons.ErrInsufficientBalance) ||
		errors.Is(err, commons.ErrIdempotencyConflict)
}

func scanAccount(row rowScanner, account *domain.Account) error {
	return row.Scan(
		&account.ID,
		&account.CustomerID,
		&account.AccountNumber,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
}
