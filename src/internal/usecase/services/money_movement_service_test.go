package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConnectionReset = errors.New("connection reset by peer")

// faultyAccountStore wraps the in-memory store so individual calls can be
// made to fail before or after the underlying mutation is applied.
type faultyAccountStore struct {
	*memory.AccountStore

	calls atomic.Int64

	mu sync.Mutex
	// beforeApply fails the call without touching the store.
	beforeApply map[string]error
	// afterApply applies the mutation and then reports the error.
	afterApply      map[string]error
	getMutationErr  error
	failCompensates bool
	// afterDebit runs once a debit has been applied.
	afterDebit func()
}

func newFaultyAccountStore(t *testing.T, accounts ...domain.Account) *faultyAccountStore {
	t.Helper()
	store := memory.NewAccountStore()
	for _, account := range accounts {
		require.NoError(t, store.Put(account))
	}
	return &faultyAccountStore{
		AccountStore: store,
		beforeApply:  map[string]error{},
		afterApply:   map[string]error{},
	}
}

// failBefore keys on the step suffix (debit, credit, compensate-DEBIT...).
func (f *faultyAccountStore) failBefore(step string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeApply[step] = err
}

func (f *faultyAccountStore) failAfter(step string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterApply[step] = err
}

func (f *faultyAccountStore) faults(key string) (error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	step := key[strings.Index(key, ":")+1:]
	if f.failCompensates && strings.HasPrefix(step, "compensate-") {
		return errConnectionReset, nil
	}
	return f.beforeApply[step], f.afterApply[step]
}

func (f *faultyAccountStore) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	f.calls.Add(1)
	return f.AccountStore.GetAccount(ctx, accountID)
}

func (f *faultyAccountStore) GetAccountByNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	f.calls.Add(1)
	return f.AccountStore.GetAccountByNumber(ctx, accountNumber)
}

func (f *faultyAccountStore) Credit(ctx context.Context, accountID string, amount decimal.Decimal, key string) (decimal.Decimal, error) {
	f.calls.Add(1)
	before, after := f.faults(key)
	if before != nil {
		return decimal.Zero, before
	}
	balance, err := f.AccountStore.Credit(ctx, accountID, amount, key)
	if err == nil && after != nil {
		return decimal.Zero, after
	}
	return balance, err
}

func (f *faultyAccountStore) Debit(ctx context.Context, accountID string, amount decimal.Decimal, key string) (decimal.Decimal, error) {
	f.calls.Add(1)
	before, after := f.faults(key)
	if before != nil {
		return decimal.Zero, before
	}
	balance, err := f.AccountStore.Debit(ctx, accountID, amount, key)
	if err == nil && f.afterDebit != nil {
		f.afterDebit()
	}
	if err == nil && after != nil {
		return decimal.Zero, after
	}
	return balance, err
}

func (f *faultyAccountStore) GetMutation(ctx context.Context, key string) (domain.Mutation, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err := f.getMutationErr
	f.mu.Unlock()
	if err != nil {
		return domain.Mutation{}, err
	}
	return f.AccountStore.GetMutation(ctx, key)
}

type failingLedger struct {
	*memory.LedgerStore
	appendErr error
	// lostAck stores the record and still reports appendErr.
	lostAck bool
}

func (l *failingLedger) Append(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	if l.appendErr != nil {
		if l.lostAck {
			_, _ = l.LedgerStore.Append(ctx, transaction)
		}
		return domain.Transaction{}, l.appendErr
	}
	return l.LedgerStore.Append(ctx, transaction)
}

type recordingAlerter struct {
	mu    sync.Mutex
	cases []domain.ReconciliationCase
}

func (a *recordingAlerter) Alert(_ context.Context, reconciliationCase domain.ReconciliationCase) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cases = append(a.cases, reconciliationCase)
	return nil
}

type credentialStub struct {
	calls   int
	validFn func(username, pin string) (bool, error)
}

func (c *credentialStub) ValidatePin(_ context.Context, username string, pin string) (bool, error) {
	c.calls++
	if c.validFn != nil {
		return c.validFn(username, pin)
	}
	return username == "ada" && pin == "1234", nil
}

type fixture struct {
	store       *faultyAccountStore
	ledger      *failingLedger
	exceptions  *memory.ExceptionStore
	alerter     *recordingAlerter
	credentials *credentialStub
	svc         *services.MoneyMovementService
}

func newFixture(t *testing.T, accounts ...domain.Account) *fixture {
	t.Helper()
	f := &fixture{
		store:       newFaultyAccountStore(t, accounts...),
		ledger:      &failingLedger{LedgerStore: memory.NewLedgerStore()},
		exceptions:  memory.NewExceptionStore(),
		alerter:     &recordingAlerter{},
		credentials: &credentialStub{},
	}
	f.svc = services.NewMoneyMovementService(f.store, f.credentials, f.ledger, f.exceptions, f.alerter, time.Second)
	return f
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	account, err := f.store.AccountStore.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}

func (f *fixture) caseKinds(t *testing.T) []domain.ErrorKind {
	t.Helper()
	cases, err := f.exceptions.List(context.Background())
	require.NoError(t, err)
	kinds := make([]domain.ErrorKind, 0, len(cases))
	for _, c := range cases {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func account(id string, number string, balance string) domain.Account {
	return domain.Account{ID: id, AccountNumber: number, Balance: decimal.RequireFromString(balance)}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertBalance(t *testing.T, f *fixture, accountID string, expected string) {
	t.Helper()
	actual := f.balance(t, accountID)
	assert.Truef(t, actual.Equal(dec(expected)), "balance of %s: expected %s, got %s", accountID, expected, actual)
}

func TestDepositCreditsAccountAndRecordsTransaction(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "1000.00"))

	tx, err := f.svc.Deposit(context.Background(), domain.DepositRequest{AccountID: "A", Amount: dec("250.00")})
	require.NoError(t, err)

	assertBalance(t, f, "A", "1250.00")
	assert.Equal(t, domain.TransactionTypeDeposit, tx.Type)
	assert.Nil(t, tx.FromAccountID)
	require.NotNil(t, tx.ToAccountID)
	assert.Equal(t, "A", *tx.ToAccountID)
	assert.Equal(t, "Deposit", tx.Description)
	assert.NotEmpty(t, tx.Reference)
	assert.NotZero(t, tx.ID)
	assert.True(t, tx.VerifyChecksum())

	history, err := f.svc.ListTransactions(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, tx.ID, history[0].ID)
}

func TestDepositRejectsInvalidAmounts(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "10"))

	for _, amount := range []string{"0", "-5", "1.001"} {
		_, err := f.svc.Deposit(context.Background(), domain.DepositRequest{AccountID: "A", Amount: dec(amount)})
		assert.ErrorIsf(t, err, domain.ErrInvalidAmount, "amount %s", amount)
	}

	assert.Zero(t, f.store.calls.Load())
	assert.Zero(t, f.ledger.Len())
}

func TestDepositIntoClosedAccountFails(t *testing.T) {
	closed := account("A", "1000000001", "10")
	closed.Status = domain.AccountStatusClosed
	f := newFixture(t, closed)

	_, err := f.svc.Deposit(context.Background(), domain.DepositRequest{AccountID: "A", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
	assertBalance(t, f, "A", "10")
}

func TestDepositUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Deposit(context.Background(), domain.DepositRequest{AccountID: "missing", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestWithdrawInsufficientBalanceLeavesNoTrace(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "100.00"))

	_, err := f.svc.Withdraw(context.Background(), domain.WithdrawRequest{
		AccountID: "A", Amount: dec("500.00"), Username: "ada", Pin: "1234",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assertBalance(t, f, "A", "100.00")
	assert.Zero(t, f.ledger.Len())
}

func TestWithdrawExactBalanceSucceeds(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "100.00"))

	tx, err := f.svc.Withdraw(context.Background(), domain.WithdrawRequest{
		AccountID: "A", Amount: dec("100.00"), Username: "ada", Pin: "1234", Description: "  rent ",
	})
	require.NoError(t, err)
	assertBalance(t, f, "A", "0")
	assert.Equal(t, "rent", tx.Description)
	require.NotNil(t, tx.FromAccountID)
	assert.Nil(t, tx.ToAccountID)
}

func TestWithdrawChecksPinBeforeAccountState(t *testing.T) {
	frozen := account("A", "1000000001", "100.00")
	frozen.Status = domain.AccountStatusFrozen
	f := newFixture(t, frozen)

	_, err := f.svc.Withdraw(context.Background(), domain.WithdrawRequest{
		AccountID: "A", Amount: dec("10"), Username: "ada", Pin: "0000",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPin)
	assert.Zero(t, f.store.calls.Load())

	_, err = f.svc.Withdraw(context.Background(), domain.WithdrawRequest{
		AccountID: "A", Amount: dec("10"), Username: "ada", Pin: "1234",
	})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
	assertBalance(t, f, "A", "100.00")
}

func TestWithdrawPinEdgeCases(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "100.00"))
	f.credentials.validFn = func(username, pin string) (bool, error) {
		switch username {
		case "ghost":
			return false, domain.ErrUserNotFound
		case "down":
			return false, errConnectionReset
		}
		return true, nil
	}

	_, err := f.svc.Withdraw(context.Background(), domain.WithdrawRequest{AccountID: "A", Amount: dec("1"), Username: "ada", Pin: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidPin)
	assert.Zero(t, f.credentials.calls)

	_, err = f.svc.Withdraw(context.Background(), domain.WithdrawRequest{AccountID: "A", Amount: dec("1"), Username: "ghost", Pin: "1234"})
	assert.ErrorIs(t, err, domain.ErrInvalidPin)

	_, err = f.svc.Withdraw(context.Background(), domain.WithdrawRequest{AccountID: "A", Amount: dec("1"), Username: "down", Pin: "1234"})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	assertBalance(t, f, "A", "100.00")
}

func TestTransferMovesFundsAndConservesTotal(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))

	tx, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("100.00")})
	require.NoError(t, err)

	assertBalance(t, f, "A", "400.00")
	assertBalance(t, f, "B", "300.00")
	assert.True(t, f.store.Total().Equal(dec("700.00")))
	assert.Equal(t, "Transfer", tx.Description)

	fromHistory, err := f.svc.ListTransactions(context.Background(), "A")
	require.NoError(t, err)
	toHistory, err := f.svc.ListTransactions(context.Background(), "B")
	require.NoError(t, err)
	require.Len(t, fromHistory, 1)
	assert.Equal(t, fromHistory, toHistory)
}

func TestTransferCompletesWhenCallerCancelsAfterDebit(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "600.00"), account("B", "1000000002", "100.00"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.store.afterDebit = cancel

	tx, err := f.svc.Transfer(ctx, domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("100.00")})
	require.NoError(t, err)

	assertBalance(t, f, "A", "500.00")
	assertBalance(t, f, "B", "200.00")
	assert.NotZero(t, tx.ID)
	assert.Equal(t, 1, f.ledger.Len())
	assert.Empty(t, f.caseKinds(t))
}

func TestWithdrawCommitsWhenCallerCancelsAfterDebit(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "50.00"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.store.afterDebit = cancel

	_, err := f.svc.Withdraw(ctx, domain.WithdrawRequest{AccountID: "A", Amount: dec("20.00"), Username: "ada", Pin: "1234"})
	require.NoError(t, err)

	assertBalance(t, f, "A", "30.00")
	assert.Equal(t, 1, f.ledger.Len())
	assert.Empty(t, f.caseKinds(t))
}

func TestTransferToSelfMakesNoRemoteCalls(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"))

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "A", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)
	assert.Zero(t, f.store.calls.Load())
}

func TestTransferCreditFailureIsCompensated(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failBefore("credit", commons.ErrAccountNotActive)

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("100.00")})
	require.ErrorIs(t, err, domain.ErrTransferPartiallyFailed)

	var movementErr *domain.MovementError
	require.ErrorAs(t, err, &movementErr)
	require.NotNil(t, movementErr.Reconciliation)
	assert.True(t, movementErr.Reconciliation.Compensated)
	assert.Equal(t, "A", movementErr.Reconciliation.SourceAccountID)
	assert.False(t, movementErr.Retryable())

	assertBalance(t, f, "A", "500.00")
	assertBalance(t, f, "B", "200.00")
	assert.Zero(t, f.ledger.Len())
	assert.Equal(t, []domain.ErrorKind{domain.KindTransferPartiallyFailed}, f.caseKinds(t))
	assert.Empty(t, f.alerter.cases)
}

func TestTransferCompensationFailureIsInconsistent(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failBefore("credit", commons.ErrRecordNotFound)
	f.store.failCompensates = true

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("100.00")})
	require.ErrorIs(t, err, domain.ErrTransferInconsistent)

	var movementErr *domain.MovementError
	require.ErrorAs(t, err, &movementErr)
	assert.True(t, movementErr.RequiresReconciliation())
	assert.False(t, movementErr.Reconciliation.Compensated)

	assertBalance(t, f, "A", "400.00")
	assertBalance(t, f, "B", "200.00")
	assert.Zero(t, f.ledger.Len())
	require.Len(t, f.alerter.cases, 1)
	assert.Equal(t, domain.KindTransferInconsistent, f.alerter.cases[0].Kind)
}

func TestTransferResolvesAppliedDebitAfterTimeout(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failAfter("debit", context.DeadlineExceeded)

	tx, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("50")})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)

	assertBalance(t, f, "A", "450.00")
	assertBalance(t, f, "B", "250.00")
}

func TestTransferResolvesMissingCreditAsNotApplied(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failBefore("credit", errConnectionReset)

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("50")})
	require.ErrorIs(t, err, domain.ErrTransferPartiallyFailed)
	assertBalance(t, f, "A", "500.00")
	assertBalance(t, f, "B", "200.00")
}

func TestTransferUnresolvableCreditIsNotCompensated(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failAfter("credit", errConnectionReset)
	f.store.getMutationErr = errConnectionReset

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("50")})
	require.ErrorIs(t, err, domain.ErrTransferInconsistent)

	// Credit landed, so refunding the source would have duplicated money.
	assertBalance(t, f, "A", "450.00")
	assertBalance(t, f, "B", "250.00")
	assert.Zero(t, f.ledger.Len())
}

func TestTransferUnresolvableDebitIsInconsistent(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failBefore("debit", errConnectionReset)
	f.store.getMutationErr = errConnectionReset

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("50")})
	require.ErrorIs(t, err, domain.ErrTransferInconsistent)
	assertBalance(t, f, "A", "500.00")
	assertBalance(t, f, "B", "200.00")
}

func TestTransferDebitRejectedByStore(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.store.failBefore("debit", commons.ErrInsufficientBalance)

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("50")})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	f.store.failBefore("debit", commons.ErrServiceUnavailable)
	_, err = f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("50")})
	require.ErrorIs(t, err, domain.ErrBalanceUpdateFailed)

	var movementErr *domain.MovementError
	require.ErrorAs(t, err, &movementErr)
	assert.True(t, movementErr.Retryable())
	assertBalance(t, f, "A", "500.00")
}

func TestWithdrawDebitRejectedByStore(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "50.00"))
	f.store.failBefore("debit", commons.ErrInsufficientBalance)

	_, err := f.svc.Withdraw(context.Background(), domain.WithdrawRequest{AccountID: "A", Amount: dec("20.00"), Username: "ada", Pin: "1234"})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assertBalance(t, f, "A", "50.00")
	assert.Zero(t, f.ledger.Len())

	f.store.failBefore("debit", commons.ErrAccountNotActive)
	_, err = f.svc.Withdraw(context.Background(), domain.WithdrawRequest{AccountID: "A", Amount: dec("20.00"), Username: "ada", Pin: "1234"})
	assert.ErrorIs(t, err, domain.ErrBalanceUpdateFailed)
	assert.Empty(t, f.caseKinds(t))
}

func TestLedgerFailureReversesMutations(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.ledger.appendErr = errors.New("ledger unavailable")

	_, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("75")})
	require.ErrorIs(t, err, domain.ErrLedgerWriteFailed)
	assertBalance(t, f, "A", "500.00")
	assertBalance(t, f, "B", "200.00")

	_, err = f.svc.Deposit(context.Background(), domain.DepositRequest{AccountID: "A", Amount: dec("10")})
	require.ErrorIs(t, err, domain.ErrLedgerWriteFailed)
	assertBalance(t, f, "A", "500.00")
}

func TestLedgerAppendCommittedDespiteError(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))
	f.ledger.appendErr = context.DeadlineExceeded
	f.ledger.lostAck = true

	tx, err := f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: dec("75")})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.True(t, tx.VerifyChecksum())
	assertBalance(t, f, "A", "425.00")
	assertBalance(t, f, "B", "275.00")
	assert.Equal(t, 1, f.ledger.Len())
}

func TestLedgerFailureWithFailedReversalIsUnresolved(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"))
	f.ledger.appendErr = errors.New("ledger unavailable")
	f.store.failCompensates = true
	f.store.getMutationErr = errConnectionReset

	_, err := f.svc.Withdraw(context.Background(), domain.WithdrawRequest{AccountID: "A", Amount: dec("10"), Username: "ada", Pin: "1234"})
	require.ErrorIs(t, err, domain.ErrMutationUnresolved)
	assert.Equal(t, []domain.ErrorKind{domain.KindMutationUnresolved}, f.caseKinds(t))
	require.Len(t, f.alerter.cases, 1)
}

func TestTransferByAccountNumber(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "500.00"), account("B", "1000000002", "200.00"))

	tx, err := f.svc.TransferByAccountNumber(context.Background(), domain.TransferByAccountNumberRequest{
		FromAccountID: "A", ToAccountNumber: "1000000002", Amount: dec("20.50"), Username: "ada", Pin: "1234",
	})
	require.NoError(t, err)
	require.NotNil(t, tx.ToAccountID)
	assert.Equal(t, "B", *tx.ToAccountID)
	assertBalance(t, f, "A", "479.50")
	assertBalance(t, f, "B", "220.50")

	_, err = f.svc.TransferByAccountNumber(context.Background(), domain.TransferByAccountNumberRequest{
		FromAccountID: "A", ToAccountNumber: "1000000001", Amount: dec("1"), Username: "ada", Pin: "1234",
	})
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)

	_, err = f.svc.TransferByAccountNumber(context.Background(), domain.TransferByAccountNumberRequest{
		FromAccountID: "A", ToAccountNumber: "9999999999", Amount: dec("1"), Username: "ada", Pin: "1234",
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = f.svc.TransferByAccountNumber(context.Background(), domain.TransferByAccountNumberRequest{
		FromAccountID: "A", ToAccountNumber: "1000000002", Amount: dec("1"), Username: "ada", Pin: "9999",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPin)
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	f := newFixture(t, account("A", "1000000001", "100.00"), account("B", "1000000002", "100.00"))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "A", "B"
			if i%2 == 1 {
				from, to = "B", "A"
			}
			_, _ = f.svc.Transfer(context.Background(), domain.TransferRequest{FromAccountID: from, ToAccountID: to, Amount: dec("7.25")})
		}(i)
	}
	wg.Wait()

	assert.True(t, f.store.Total().Equal(dec("200.00")))
	assert.False(t, f.balance(t, "A").IsNegative())
	assert.False(t, f.balance(t, "B").IsNegative())

	history, err := f.svc.ListTransactions(context.Background(), "A")
	require.NoError(t, err)
	assert.Len(t, history, f.ledger.Len())
}

func TestListTransactionsRequiresAccountID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListTransactions(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	history, err := f.svc.ListTransactions(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}
