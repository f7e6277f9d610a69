package domain

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("User not found")

type CredentialValidator interface {
	ValidatePin(ctx context.Context, username string, pin string) (bool, error)
}
