package models

import (
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountResponse struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	AccountNumber string    `json:"accountNumber"`
	Balance       string    `json:"balance"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		CustomerID:    a.CustomerID,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance.StringFixed(2),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (r AccountResponse) ToDomain() (domain.Account, error) {
	balance, err := decimal.NewFromString(r.Balance)
	if err != nil {
		return domain.Account{}, err
	}
	return domain.Account{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		AccountNumber: r.AccountNumber,
		Balance:       balance,
		Status:        domain.AccountStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

// BalanceMutationRequest is the body of POST /accounts/{id}/credit and /debit.
type BalanceMutationRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey" validate:"required,max=128"`
}

func (r BalanceMutationRequest) Validate() error {
	return validateStruct(r)
}

type BalanceMutationResponse struct {
	AccountID      string `json:"accountId"`
	IdempotencyKey string `json:"idempotencyKey"`
	Balance        string `json:"balance"`
}

type MutationResponse struct {
	IdempotencyKey string    `json:"idempotencyKey"`
	AccountID      string    `json:"accountId"`
	Direction      string    `json:"direction"`
	Amount         string    `json:"amount"`
	BalanceAfter   string    `json:"balanceAfter"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewMutationResponse(m domain.Mutation) MutationResponse {
	return MutationResponse{
		IdempotencyKey: m.IdempotencyKey,
		AccountID:      m.AccountID,
		Direction:      string(m.Direction),
		Amount:         m.Amount.StringFixed(2),
		BalanceAfter:   m.BalanceAfter.StringFixed(2),
		CreatedAt:      m.CreatedAt,
	}
}

func (r MutationResponse) ToDomain() (domain.Mutation, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return domain.Mutation{}, err
	}
	balanceAfter, err := decimal.NewFromString(r.BalanceAfter)
	if err != nil {
		return domain.Mutation{}, err
	}
	return domain.Mutation{
		IdempotencyKey: r.IdempotencyKey,
		AccountID:      r.AccountID,
		Direction:      domain.MutationDirection(r.Direction),
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		CreatedAt:      r.CreatedAt,
	}, nil
}

type ValidatePinRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Pin      string `json:"pin" validate:"required"`
}

func (r ValidatePinRequest) Validate() error {
	return validateStruct(r)
}

type ValidatePinResponse struct {
	Username   string `json:"username"`
	IsValidPin bool   `json:"isValidPin"`
}
