package models

import (
	"errors"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// Amounts are validated by the coordinator so that a bad amount reports
// INVALID_AMOUNT rather than a generic validation failure.

type DepositRequest struct {
	AccountID   string          `json:"accountId" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

func (r DepositRequest) Validate() error {
	return validateStruct(r)
}

func (r DepositRequest) ToDomain() domain.DepositRequest {
	return domain.DepositRequest{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

type WithdrawRequest struct {
	AccountID   string          `json:"accountId" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount"`
	Username    string          `json:"username" validate:"max=100"`
	Pin         string          `json:"pin"`
	Description string          `json:"description" validate:"max=255"`
}

func (r WithdrawRequest) Validate() error {
	return validateStruct(r)
}

func (r WithdrawRequest) ToDomain() domain.WithdrawRequest {
	return domain.WithdrawRequest{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Username:    r.Username,
		Pin:         r.Pin,
		Description: r.Description,
	}
}

type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId" validate:"required,max=64"`
	ToAccountID   string          `json:"toAccountId" validate:"required,max=64"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"max=255"`
}

func (r TransferRequest) Validate() error {
	return validateStruct(r)
}

func (r TransferRequest) ToDomain() domain.TransferRequest {
	return domain.TransferRequest{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		Description:   r.Description,
	}
}

type TransferByAccountNumberRequest struct {
	FromAccountID   string          `json:"fromAccountId" validate:"required,max=64"`
	ToAccountNumber string          `json:"toAccountNumber" validate:"required,max=34"`
	Amount          decimal.Decimal `json:"amount"`
	Username        string          `json:"username" validate:"max=100"`
	Pin             string          `json:"pin"`
	Description     string          `json:"description" validate:"max=255"`
}

func (r TransferByAccountNumberRequest) Validate() error {
	return validateStruct(r)
}

func (r TransferByAccountNumberRequest) ToDomain() domain.TransferByAccountNumberRequest {
	return domain.TransferByAccountNumberRequest{
		FromAccountID:   r.FromAccountID,
		ToAccountNumber: r.ToAccountNumber,
		Amount:          r.Amount,
		Username:        r.Username,
		Pin:             r.Pin,
		Description:     r.Description,
	}
}

type TransactionResponse struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	FromAccountID *string   `json:"fromAccountId"`
	ToAccountID   *string   `json:"toAccountId"`
	Amount        string    `json:"amount"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	Description   string    `json:"description"`
	Checksum      string    `json:"checksum"`
}

func NewTransactionResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Reference:     t.Reference,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount.StringFixed(2),
		Type:          string(t.Type),
		Timestamp:     t.Timestamp,
		Description:   t.Description,
		Checksum:      t.Checksum,
	}
}

func NewTransactionResponses(transactions []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}

// MovementErrorResponse is the body of a failed money movement. Kind is the
// stable machine readable error kind.
type MovementErrorResponse struct {
	Success        bool                    `json:"success"`
	Message        string                  `json:"message"`
	Kind           string                  `json:"kind"`
	Retryable      bool                    `json:"retryable"`
	Reconciliation *ReconciliationResponse `json:"reconciliation,omitempty"`
}

func NewMovementErrorResponse(err error) MovementErrorResponse {
	var movementErr *domain.MovementError
	if !errors.As(err, &movementErr) {
		return MovementErrorResponse{Message: "internal server error"}
	}
	message := movementErr.Message
	if message == "" {
		message = string(movementErr.Kind)
	}
	return MovementErrorResponse{
		Message:        message,
		Kind:           string(movementErr.Kind),
		Retryable:      movementErr.Retryable(),
		Reconciliation: NewReconciliationResponse(movementErr.Reconciliation),
	}
}

// ReconciliationResponse is attached to failures that left state an operator
// has to look at.
type ReconciliationResponse struct {
	Reference            string `json:"reference"`
	SourceAccountID      string `json:"sourceAccountId"`
	DestinationAccountID string `json:"destinationAccountId,omitempty"`
	Amount               string `json:"amount"`
	Compensated          bool   `json:"compensated"`
}

func NewReconciliationResponse(r *domain.Reconciliation) *ReconciliationResponse {
	if r == nil {
		return nil
	}
	return &ReconciliationResponse{
		Reference:            r.Reference,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount.StringFixed(2),
		Compensated:          r.Compensated,
	}
}

type ReconciliationCaseResponse struct {
	ID                   string    `json:"id"`
	Kind                 string    `json:"kind"`
	Reference            string    `json:"reference"`
	Operation            string    `json:"operation"`
	SourceAccountID      string    `json:"sourceAccountId,omitempty"`
	DestinationAccountID string    `json:"destinationAccountId,omitempty"`
	Amount               string    `json:"amount"`
	Compensated          bool      `json:"compensated"`
	Detail               string    `json:"detail"`
	CreatedAt            time.Time `json:"createdAt"`
}

func NewReconciliationCaseResponse(c domain.ReconciliationCase) ReconciliationCaseResponse {
	return ReconciliationCaseResponse{
		ID:                   c.ID,
		Kind:                 string(c.Kind),
		Reference:            c.Reference,
		Operation:            string(c.Operation),
		SourceAccountID:      c.SourceAccountID,
		DestinationAccountID: c.DestinationAccountID,
		Amount:               c.Amount.StringFixed(2),
		Compensated:          c.Compensated,
		Detail:               c.Detail,
		CreatedAt:            c.CreatedAt,
	}
}
