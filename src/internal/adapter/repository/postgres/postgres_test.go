package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/postgres"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationsRoot = filepath.Join("..", "..", "..", "..", "migrations")

func mustEnv(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set; skipping postgres integration test", key)
	}
	return value
}

func openAccounts(t *testing.T) *sql.DB {
	t.Helper()
	dsn := mustEnv(t, "LEDGER_TEST_DSN")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, postgres.RunMigrations(ctx, dsn, filepath.Join(migrationsRoot, "accounts")))
	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openLedger(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := mustEnv(t, "LEDGER_TEST_DSN")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, postgres.RunMigrations(ctx, dsn, filepath.Join(migrationsRoot, "ledger")))
	pool, err := postgres.OpenPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createAccount(t *testing.T, store *postgres.AccountStore, balance string) domain.Account {
	t.Helper()
	account, err := store.Create(context.Background(), domain.Account{
		CustomerID:    "cust-" + uuid.NewString(),
		AccountNumber: uuid.NewString()[:18],
		Balance:       decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return account
}

func TestAccountStoreMutationsAreJournaled(t *testing.T) {
	store := postgres.NewAccountStore(openAccounts(t))
	ctx := context.Background()
	account := createAccount(t, store, "100.00")

	key := "it-" + uuid.NewString()
	balance, err := store.Debit(ctx, account.ID, decimal.RequireFromString("40.25"), key)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("59.75")))

	replayed, err := store.Debit(ctx, account.ID, decimal.RequireFromString("40.25"), key)
	require.NoError(t, err)
	assert.True(t, replayed.Equal(balance))

	_, err = store.Credit(ctx, account.ID, decimal.RequireFromString("40.25"), key)
	assert.ErrorIs(t, err, commons.ErrIdempotencyConflict)

	mutation, err := store.GetMutation(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.MutationDebit, mutation.Direction)
	assert.True(t, mutation.BalanceAfter.Equal(balance))

	_, err = store.Debit(ctx, account.ID, decimal.RequireFromString("1000"), "it-"+uuid.NewString())
	assert.ErrorIs(t, err, commons.ErrInsufficientBalance)

	_, err = store.Credit(ctx, uuid.NewString(), decimal.RequireFromString("1"), "it-"+uuid.NewString())
	assert.ErrorIs(t, err, commons.ErrRecordNotFound)

	byNumber, err := store.GetAccountByNumber(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, account.ID, byNumber.ID)
	assert.True(t, byNumber.Balance.Equal(decimal.RequireFromString("59.75")))
}

func TestAccountStoreConcurrentDebits(t *testing.T) {
	store := postgres.NewAccountStore(openAccounts(t))
	account := createAccount(t, store, "100.00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Debit(context.Background(), account.ID, decimal.NewFromInt(10), "it-"+uuid.NewString())
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	final, err := store.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, final.Balance.IsZero())
}

func TestLedgerRepositoryRoundTrip(t *testing.T) {
	repo := postgres.NewLedgerRepository(openLedger(t))
	ctx := context.Background()
	accountID := uuid.NewString()

	record := domain.Transaction{
		Reference:   uuid.NewString(),
		ToAccountID: &accountID,
		Amount:      decimal.RequireFromString("12.30"),
		Type:        domain.TransactionTypeDeposit,
		Timestamp:   time.Now().UTC().Truncate(time.Microsecond),
		Description: "Deposit",
	}
	checksum, err := record.ComputeChecksum()
	require.NoError(t, err)
	record.Checksum = checksum

	saved, err := repo.Append(ctx, record)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	_, err = repo.Append(ctx, record)
	assert.Error(t, err)

	found, err := repo.FindByReference(ctx, record.Reference)
	require.NoError(t, err)
	assert.True(t, found.VerifyChecksum())

	history, err := repo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, saved.ID, history[0].ID)

	_, err = repo.FindByReference(ctx, uuid.NewString())
	assert.ErrorIs(t, err, commons.ErrRecordNotFound)
}

func TestExceptionRepositoryRecord(t *testing.T) {
	repo := postgres.NewExceptionRepository(openLedger(t))

	recorded, err := repo.Record(context.Background(), domain.ReconciliationCase{
		Kind:            domain.KindTransferInconsistent,
		Reference:       uuid.NewString(),
		Operation:       domain.TransactionTypeTransfer,
		SourceAccountID: "a",
		Amount:          decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, recorded.ID)

	cases, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cases)
}

func TestUserRepositoryPinRoundTrip(t *testing.T) {
	users := postgres.NewUserRepository(openAccounts(t))
	ctx := context.Background()

	hash, err := services.HashTransactionPin("4321")
	require.NoError(t, err)

	username := "user-" + uuid.NewString()[:8]
	created, err := users.Create(ctx, domain.User{Username: username, TransactionPinHash: hash})
	require.NoError(t, err)
	assert.Equal(t, username, created.Username)
	assert.NotZero(t, created.CreatedAt)

	stored, err := users.GetTransactionPinHashByUsername(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, hash, stored)

	credentials := services.NewCredentialService(users)
	valid, err := credentials.ValidatePin(ctx, username, "4321")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = credentials.ValidatePin(ctx, username, "0000")
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = users.GetTransactionPinHashByUsername(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = users.Create(ctx, domain.User{Username: username, TransactionPinHash: hash})
	assert.Error(t, err)
}
