package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

// Seed is the SEED_FILE document.
type Seed struct {
	Accounts []SeedAccount `json:"accounts"`
	Users    []SeedUser    `json:"users"`
}

type SeedAccount struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customerId"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
}

// SeedUser carries a plain PIN; it is hashed before it is stored.
type SeedUser struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

// LoadSeed reads path and fills the stores. hashPin turns a plain PIN into
// the stored hash.
func LoadSeed(path string, accounts *AccountStore, users *UserRepository, hashPin func(string) (string, error)) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}

	for _, a := range seed.Accounts {
		status := domain.AccountStatus(strings.ToUpper(strings.TrimSpace(a.Status)))
		switch status {
		case "", domain.AccountStatusActive, domain.AccountStatusFrozen, domain.AccountStatusClosed:
		default:
			return fmt.Errorf("seed account %s: unknown status %q", a.ID, a.Status)
		}
		if err := accounts.Put(domain.Account{
			ID:            a.ID,
			CustomerID:    a.CustomerID,
			AccountNumber: a.AccountNumber,
			Balance:       a.Balance,
			Status:        status,
		}); err != nil {
			return fmt.Errorf("seed account %s: %w", a.ID, err)
		}
	}

	for _, u := range seed.Users {
		if strings.TrimSpace(u.Username) == "" || u.Pin == "" {
			return fmt.Errorf("seed user requires username and pin")
		}
		hash, err := hashPin(u.Pin)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		users.Put(u.Username, hash)
	}

	logger.Info("memory store seeded", logger.Fields{
		"path":     path,
		"accounts": len(seed.Accounts),
		"users":    len(seed.Users),
	})
	return nil
}
