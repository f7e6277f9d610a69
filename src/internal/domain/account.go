package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

type Account struct {
	ID            string
	CustomerID    string
	AccountNumber string
	Balance       decimal.Decimal
	Status        AccountStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MutationDirection string

const (
	MutationCredit MutationDirection = "CREDIT"
	MutationDebit  MutationDirection = "DEBIT"
)

// Mutation is the account store's journal entry for one applied Credit or
// Debit, keyed by the caller supplied idempotency key.
type Mutation struct {
	IdempotencyKey string
	AccountID      string
	Direction      MutationDirection
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	CreatedAt      time.Time
}
