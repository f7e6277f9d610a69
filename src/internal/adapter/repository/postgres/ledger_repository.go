package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository is the append-only transactions table. The table carries a
// trigger that refuses UPDATE and DELETE.
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	logger.Info("ledger repository append", logger.Fields{
		"reference": transaction.Reference,
		"type":      transaction.Type,
		"amount":    transaction.Amount.String(),
	})

	const query = `
INSERT INTO transactions (
	reference,
	from_account_id,
	to_account_id,
	amount,
	type,
	timestamp,
	description,
	checksum
) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
RETURNING id`

	if err := r.db.QueryRow(
		ctx,
		query,
		transaction.Reference,
		transaction.FromAccountID,
		transaction.ToAccountID,
		transaction.Amount.String(),
		string(transaction.Type),
		transaction.Timestamp,
		transaction.Description,
		transaction.Checksum,
	).Scan(&transaction.ID); err != nil {
		logger.Error("ledger repository append failed", err, logger.Fields{
			"reference": transaction.Reference,
		})
		return domain.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	logger.Info("ledger repository append success", logger.Fields{
		"transactionId": transaction.ID,
		"reference":     transaction.Reference,
	})

	return transaction, nil
}

func (r *LedgerRepository) FindByReference(ctx context.Context, reference string) (domain.Transaction, error) {
	const query = `
SELECT id, reference, from_account_id, to_account_id, amount::text, type, timestamp, description, checksum
FROM transactions
WHERE reference = $1`

	transaction, err := scanTransaction(r.db.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Transaction{}, commons.ErrRecordNotFound
		}
		logger.Error("ledger repository find by reference failed", err, logger.Fields{
			"reference": reference,
		})
		return domain.Transaction{}, fmt.Errorf("find transaction by reference: %w", err)
	}

	return transaction, nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	logger.Info("ledger repository list by account", logger.Fields{
		"accountId": accountID,
	})

	const query = `
SELECT id, reference, from_account_id, to_account_id, amount::text, type, timestamp, description, checksum
FROM transactions
WHERE from_account_id = $1 OR to_account_id = $1
ORDER BY timestamp ASC, id ASC`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		logger.Error("ledger repository list by account failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("list transactions by account: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if !transaction.VerifyChecksum() {
			logger.Warn("ledger repository checksum mismatch", logger.Fields{
				"transactionId": transaction.ID,
				"reference":     transaction.Reference,
			})
		}
		out = append(out, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var (
		transaction domain.Transaction
		amount      string
		txType      string
	)

	if err := row.Scan(
		&transaction.ID,
		&transaction.Reference,
		&transaction.FromAccountID,
		&transaction.ToAccountID,
		&amount,
		&txType,
		&transaction.Timestamp,
		&transaction.Description,
		&transaction.Checksum,
	); err != nil {
		return domain.Transaction{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parse transaction amount %q: %w", amount, err)
	}
	transaction.Amount = parsed
	transaction.Type = domain.TransactionType(txType)
	transaction.Timestamp = transaction.Timestamp.UTC()

	return transaction, nil
}
