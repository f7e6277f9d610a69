package postgres

import (
	"context"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ExceptionRepository persists reconciliation cases next to the ledger.
type ExceptionRepository struct {
	db *pgxpool.Pool
}

func NewExceptionRepository(db *pgxpool.Pool) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

func (r *ExceptionRepository) Record(ctx context.Context, reconciliationCase domain.ReconciliationCase) (domain.ReconciliationCase, error) {
	const query = `
INSERT INTO reconciliation_cases (
	kind,
	reference,
	operation,
	source_account_id,
	destination_account_id,
	amount,
	compensated,
	detail
) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
RETURNING id, created_at`

	if err := r.db.QueryRow(
		ctx,
		query,
		string(reconciliationCase.Kind),
		reconciliationCase.Reference,
		string(reconciliationCase.Operation),
		reconciliationCase.SourceAccountID,
		reconciliationCase.DestinationAccountID,
		reconciliationCase.Amount.String(),
		reconciliationCase.Compensated,
		reconciliationCase.Detail,
	).Scan(&reconciliationCase.ID, &reconciliationCase.CreatedAt); err != nil {
		logger.Error("exception repository record failed", err, logger.Fields{
			"reference": reconciliationCase.Reference,
			"kind":      reconciliationCase.Kind,
		})
		return domain.ReconciliationCase{}, fmt.Errorf("record reconciliation case: %w", err)
	}

	return reconciliationCase, nil
}

func (r *ExceptionRepository) List(ctx context.Context) ([]domain.ReconciliationCase, error) {
	const query = `
SELECT id, kind, reference, operation, source_account_id, destination_account_id, amount::text, compensated, detail, created_at
FROM reconciliation_cases
ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation cases: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ReconciliationCase, 0)
	for rows.Next() {
		var (
			c         domain.ReconciliationCase
			kind      string
			operation string
			amount    string
		)
		if err := rows.Scan(&c.ID, &kind, &c.Reference, &operation, &c.SourceAccountID, &c.DestinationAccountID, &amount, &c.Compensated, &c.Detail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation case: %w", err)
		}
		c.Kind = domain.ErrorKind(kind)
		c.Operation = domain.TransactionType(operation)
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse reconciliation amount %q: %w", amount, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation cases: %w", err)
	}

	return out, nil
}
