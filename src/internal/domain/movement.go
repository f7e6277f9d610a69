package domain

import "github.com/shopspring/decimal"

type DepositRequest struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

type WithdrawRequest struct {
	AccountID   string
	Amount      decimal.Decimal
	Username    string
	Pin         string
	Description string
}

type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
}

type TransferByAccountNumberRequest struct {
	FromAccountID   string
	ToAccountNumber string
	Amount          decimal.Decimal
	Username        string
	Pin             string
	Description     string
}
