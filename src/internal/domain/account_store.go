package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountStore is the narrow interface to the separately owned account
// records. Credit and Debit apply a delta atomically on the store side and
// replay the recorded result when called again with the same key.
type AccountStore interface {
	GetAccount(ctx context.Context, accountID string) (Account, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (Account, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error)
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error)
	GetMutation(ctx context.Context, idempotencyKey string) (Mutation, error)
}
