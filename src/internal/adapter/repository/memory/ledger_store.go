package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type LedgerStore struct {
	mu      sync.RWMutex
	records []domain.Transaction
	nextID  int64
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{nextID: 1}
}

func (s *LedgerStore) Append(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Reference != "" && record.Reference == transaction.Reference {
			return domain.Transaction{}, fmt.Errorf("reference %s already recorded", transaction.Reference)
		}
	}

	transaction.ID = s.nextID
	s.nextID++
	s.records = append(s.records, cloneTransaction(transaction))

	return transaction, nil
}

func (s *LedgerStore) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, record := range s.records {
		if record.Involves(accountID) {
			out = append(out, cloneTransaction(record))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

func (s *LedgerStore) FindByReference(ctx context.Context, reference string) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.Reference == reference {
			return cloneTransaction(record), nil
		}
	}
	return domain.Transaction{}, commons.ErrRecordNotFound
}

// Len reports how many records have been appended.
func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneTransaction(transaction domain.Transaction) domain.Transaction {
	if transaction.FromAccountID != nil {
		from := *transaction.FromAccountID
		transaction.FromAccountID = &from
	}
	if transaction.ToAccountID != nil {
		to := *transaction.ToAccountID
		transaction.ToAccountID = &to
	}
	return transaction
}
