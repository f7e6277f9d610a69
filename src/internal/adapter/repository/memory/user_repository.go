package memory

import (
	"context"
	"sync"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type UserRepository struct {
	mu        sync.RWMutex
	pinHashes map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{pinHashes: make(map[string]string)}
}

func (r *UserRepository) Put(username string, transactionPinHash string) {
	r.mu.Lock()
	r.pinHashes[username] = transactionPinHash
	r.mu.Unlock()
}

func (r *UserRepository) GetTransactionPinHashByUsername(_ context.Context, username string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hash, ok := r.pinHashes[username]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return hash, nil
}
