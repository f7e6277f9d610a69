package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountStore keeps accounts in process. A single mutex linearizes every
// read-modify-write, which is what the coordinator relies on.
type AccountStore struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	byNumber  map[string]string
	mutations map[string]domain.Mutation
	now       func() time.Time
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:  make(map[string]domain.Account),
		byNumber:  make(map[string]string),
		mutations: make(map[string]domain.Mutation),
		now:       time.Now,
	}
}

// Put inserts or replaces an account record.
func (s *AccountStore) Put(account domain.Account) error {
	if strings.TrimSpace(account.ID) == "" || strings.TrimSpace(account.AccountNumber) == "" {
		return fmt.Errorf("account id and account number are required")
	}
	if account.Balance.IsNegative() {
		return fmt.Errorf("balance cannot be negative")
	}
	if account.Status == "" {
		account.Status = domain.AccountStatusActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ownerID, ok := s.byNumber[account.AccountNumber]; ok && ownerID != account.ID {
		return fmt.Errorf("account number %s already in use", account.AccountNumber)
	}
	if existing, ok := s.accounts[account.ID]; ok && existing.AccountNumber != account.AccountNumber {
		delete(s.byNumber, existing.AccountNumber)
	}

	now := s.now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	s.accounts[account.ID] = account
	s.byNumber[account.AccountNumber] = account.ID
	return nil
}

func (s *AccountStore) SetStatus(accountID string, status domain.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return commons.ErrRecordNotFound
	}
	account.Status = status
	account.UpdatedAt = s.now().UTC()
	s.accounts[accountID] = account
	return nil
}

func (s *AccountStore) GetAccount(_ context.Context, accountID string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, commons.ErrRecordNotFound
	}
	return account, nil
}

func (s *AccountStore) GetAccountByNumber(_ context.Context, accountNumber string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byNumber[accountNumber]
	if !ok {
		return domain.Account{}, commons.ErrRecordNotFound
	}
	return s.accounts[id], nil
}

func (s *AccountStore) Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	return s.apply(ctx, accountID, amount, idempotencyKey, domain.MutationCredit)
}

func (s *AccountStore) Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	return s.apply(ctx, accountID, amount, idempotencyKey, domain.MutationDebit)
}

func (s *AccountStore) GetMutation(_ context.Context, idempotencyKey string) (domain.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutation, ok := s.mutations[idempotencyKey]
	if !ok {
		return domain.Mutation{}, commons.ErrRecordNotFound
	}
	return mutation, nil
}

// Total returns the sum of all balances.
func (s *AccountStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, account := range s.accounts {
		total = total.Add(account.Balance)
	}
	return total
}

func (s *AccountStore) apply(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string, direction domain.MutationDirection) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return decimal.Zero, fmt.Errorf("idempotency key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.mutations[idempotencyKey]; ok {
		if existing.AccountID != accountID || existing.Direction != direction || !existing.Amount.Equal(amount) {
			return decimal.Zero, commons.ErrIdempotencyConflict
		}
		return existing.BalanceAfter, nil
	}

	account, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, commons.ErrRecordNotFound
	}
	if account.Status != domain.AccountStatusActive {
		return decimal.Zero, commons.ErrAccountNotActive
	}

	switch direction {
	case domain.MutationDebit:
		if account.Balance.LessThan(amount) {
			return decimal.Zero, commons.ErrInsufficientBalance
		}
		account.Balance = account.Balance.Sub(amount)
	default:
		account.Balance = account.Balance.Add(amount)
	}

	now := s.now().UTC()
	account.UpdatedAt = now
	s.accounts[accountID] = account
	s.mutations[idempotencyKey] = domain.Mutation{
		IdempotencyKey: idempotencyKey,
		AccountID:      accountID,
		Direction:      direction,
		Amount:         amount,
		BalanceAfter:   account.Balance,
		CreatedAt:      now,
	}

	return account.Balance, nil
}
