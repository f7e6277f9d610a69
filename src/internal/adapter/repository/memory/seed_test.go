package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func fakeHash(pin string) (string, error) {
	return "hashed:" + pin, nil
}

func TestLoadSeed(t *testing.T) {
	path := writeSeed(t, `{
		"accounts": [
			{"id": "acc-1", "accountNumber": "0000000001", "balance": "250.00"},
			{"id": "acc-2", "accountNumber": "0000000002", "balance": "0", "status": "frozen"}
		],
		"users": [{"username": "ada", "pin": "1234"}]
	}`)

	accounts := NewAccountStore()
	users := NewUserRepository()
	require.NoError(t, LoadSeed(path, accounts, users, fakeHash))

	ctx := context.Background()
	first, err := accounts.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, first.Balance.Equal(decimal.RequireFromString("250")))
	assert.Equal(t, domain.AccountStatusActive, first.Status)

	second, err := accounts.GetAccountByNumber(ctx, "0000000002")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusFrozen, second.Status)

	hash, err := users.GetTransactionPinHashByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "hashed:1234", hash)
}

func TestLoadSeedRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"malformed json":   `{"accounts": [`,
		"negative balance": `{"accounts": [{"id": "a", "accountNumber": "1", "balance": "-1"}]}`,
		"unknown status":   `{"accounts": [{"id": "a", "accountNumber": "1", "balance": "1", "status": "DORMANT"}]}`,
		"user without pin": `{"users": [{"username": "ada"}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			err := LoadSeed(writeSeed(t, body), NewAccountStore(), NewUserRepository(), fakeHash)
			assert.Error(t, err)
		})
	}
}
