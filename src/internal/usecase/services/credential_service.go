package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// CredentialService checks transaction PINs against bcrypt hashes held by the
// user repository. It satisfies domain.CredentialValidator.
type CredentialService struct {
	userRepo domain.UserRepository
}

func NewCredentialService(userRepo domain.UserRepository) *CredentialService {
	return &CredentialService{userRepo: userRepo}
}

func (s *CredentialService) ValidatePin(ctx context.Context, username string, pin string) (bool, error) {
	logger.Info("credential service validate pin request", logger.Fields{
		"username": username,
		"pin":      pin,
	})

	username = strings.TrimSpace(username)
	pin = strings.TrimSpace(pin)
	if username == "" || pin == "" {
		return false, nil
	}

	storedPinHash, err := s.userRepo.GetTransactionPinHashByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, commons.ErrRecordNotFound) {
			logger.Info("credential service validate pin user not found", logger.Fields{
				"username": username,
			})
			return false, domain.ErrUserNotFound
		}
		logger.Error("credential service validate pin lookup failed", err, logger.Fields{
			"username": username,
		})
		return false, fmt.Errorf("lookup transaction pin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedPinHash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Info("credential service validate pin mismatch", logger.Fields{
				"username": username,
			})
			return false, nil
		}
		wrappedErr := fmt.Errorf("verify transaction pin: %w", err)
		logger.Error("credential service validate pin compare failed", wrappedErr, logger.Fields{
			"username": username,
		})
		return false, wrappedErr
	}

	logger.Info("credential service validate pin success", logger.Fields{
		"username":   username,
		"isValidPin": true,
	})
	return true, nil
}

// HashTransactionPin is used when seeding credentials.
func HashTransactionPin(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash transaction pin: %w", err)
	}

	return string(hashed), nil
}
