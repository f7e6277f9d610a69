package domain

import "context"

// LedgerStore is append-only. There is deliberately no update or delete.
type LedgerStore interface {
	Append(ctx context.Context, transaction Transaction) (Transaction, error)
	// FindByReference returns commons.ErrRecordNotFound when nothing was
	// appended under the reference.
	FindByReference(ctx context.Context, reference string) (Transaction, error)
	ListByAccount(ctx context.Context, accountID string) ([]Transaction, error)
}

type ExceptionStore interface {
	Record(ctx context.Context, reconciliationCase ReconciliationCase) (ReconciliationCase, error)
	List(ctx context.Context) ([]ReconciliationCase, error)
}

type Alerter interface {
	Alert(ctx context.Context, reconciliationCase ReconciliationCase) error
}
