package service_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type MoneyMovementService interface {
	Deposit(ctx context.Context, req domain.DepositRequest) (domain.Transaction, error)
	Withdraw(ctx context.Context, req domain.WithdrawRequest) (domain.Transaction, error)
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error)
	TransferByAccountNumber(ctx context.Context, req domain.TransferByAccountNumberRequest) (domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
}
