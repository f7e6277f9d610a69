package domain

import (
	"context"
	"time"
)

type User struct {
	ID                 string
	Username           string
	TransactionPinHash string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type UserRepository interface {
	GetTransactionPinHashByUsername(ctx context.Context, username string) (string, error)
}
