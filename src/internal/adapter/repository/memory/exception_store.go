package memory

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/google/uuid"
)

type ExceptionStore struct {
	mu    sync.RWMutex
	cases []domain.ReconciliationCase
}

func NewExceptionStore() *ExceptionStore {
	return &ExceptionStore{}
}

func (s *ExceptionStore) Record(_ context.Context, reconciliationCase domain.ReconciliationCase) (domain.ReconciliationCase, error) {
	if reconciliationCase.ID == "" {
		reconciliationCase.ID = uuid.NewString()
	}
	if reconciliationCase.CreatedAt.IsZero() {
		reconciliationCase.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.cases = append(s.cases, reconciliationCase)
	s.mu.Unlock()

	return reconciliationCase, nil
}

func (s *ExceptionStore) List(_ context.Context) ([]domain.ReconciliationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ReconciliationCase, len(s.cases))
	copy(out, s.cases)
	return out, nil
}
