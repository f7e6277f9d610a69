package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultCallTimeout = 5 * time.Second

type MoneyMovementService struct {
	accountStore domain.AccountStore
	credentials  domain.CredentialValidator
	ledger       domain.LedgerStore
	exceptions   domain.ExceptionStore
	alerter      domain.Alerter
	callTimeout  time.Duration
	now          func() time.Time
}

// NewMoneyMovementService wires the coordinator. exceptions and alerter may be
// nil, in which case reconciliation cases are only logged.
func NewMoneyMovementService(
	accountStore domain.AccountStore,
	credentials domain.CredentialValidator,
	ledger domain.LedgerStore,
	exceptions domain.ExceptionStore,
	alerter domain.Alerter,
	callTimeout time.Duration,
) *MoneyMovementService {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	return &MoneyMovementService{
		accountStore: accountStore,
		credentials:  credentials,
		ledger:       ledger,
		exceptions:   exceptions,
		alerter:      alerter,
		callTimeout:  callTimeout,
		now:          time.Now,
	}
}

func (s *MoneyMovementService) Deposit(ctx context.Context, req domain.DepositRequest) (domain.Transaction, error) {
	logger.Info("money movement service deposit request", logger.Fields{
		"accountId": req.AccountID,
		"amount":    req.Amount.String(),
	})

	if err := validateAmount(req.Amount); err != nil {
		return domain.Transaction{}, err
	}
	if err := validateAccountID("accountId", req.AccountID); err != nil {
		return domain.Transaction{}, err
	}

	account, err := s.fetchAccount(ctx, req.AccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := ensureActive(account); err != nil {
		return domain.Transaction{}, err
	}

	reference := uuid.NewString()
	credit := mutationStep{direction: domain.MutationCredit, accountID: account.ID, amount: req.Amount, key: mutationKey(reference, "credit")}

	outcome, err := s.apply(ctx, credit)
	switch outcome {
	case outcomeRejected:
		logger.Error("money movement service deposit credit failed", err, logger.Fields{
			"accountId": account.ID,
			"reference": reference,
		})
		return domain.Transaction{}, domain.NewMovementError(domain.KindBalanceUpdateFailed, "Failed to update account balance", err)
	case outcomeUnknown:
		return domain.Transaction{}, s.unresolved(ctx, domain.TransactionTypeDeposit, reference, "", account.ID, req.Amount, "deposit credit outcome could not be confirmed", err)
	}

	toAccountID := account.ID
	record := domain.Transaction{
		Reference:   reference,
		ToAccountID: &toAccountID,
		Amount:      req.Amount,
		Type:        domain.TransactionTypeDeposit,
		Description: descriptionOrDefault(req.Description, domain.TransactionTypeDeposit),
	}

	return s.commit(context.WithoutCancel(ctx), record, []mutationStep{credit})
}

func (s *MoneyMovementService) Withdraw(ctx context.Context, req domain.WithdrawRequest) (domain.Transaction, error) {
	logger.Info("money movement service withdraw request", logger.Fields{
		"accountId": req.AccountID,
		"amount":    req.Amount.String(),
		"username":  req.Username,
	})

	if err := validateAmount(req.Amount); err != nil {
		return domain.Transaction{}, err
	}
	if err := validateAccountID("accountId", req.AccountID); err != nil {
		return domain.Transaction{}, err
	}
	if err := s.validatePin(ctx, req.Username, req.Pin); err != nil {
		return domain.Transaction{}, err
	}

	account, err := s.fetchAccount(ctx, req.AccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := ensureActive(account); err != nil {
		return domain.Transaction{}, err
	}
	if err := ensureSufficientBalance(account, req.Amount, "withdrawal"); err != nil {
		return domain.Transaction{}, err
	}

	reference := uuid.NewString()
	debit := mutationStep{direction: domain.MutationDebit, accountID: account.ID, amount: req.Amount, key: mutationKey(reference, "debit")}

	outcome, err := s.apply(ctx, debit)
	switch outcome {
	case outcomeRejected:
		logger.Error("money movement service withdraw debit failed", err, logger.Fields{
			"accountId": account.ID,
			"reference": reference,
		})
		if errors.Is(err, commons.ErrInsufficientBalance) {
			return domain.Transaction{}, domain.NewMovementError(domain.KindInsufficientBalance, "Insufficient balance for withdrawal", err)
		}
		return domain.Transaction{}, domain.NewMovementError(domain.KindBalanceUpdateFailed, "Failed to update account balance", err)
	case outcomeUnknown:
		return domain.Transaction{}, s.unresolved(ctx, domain.TransactionTypeWithdraw, reference, account.ID, "", req.Amount, "withdraw debit outcome could not be confirmed", err)
	}

	fromAccountID := account.ID
	record := domain.Transaction{
		Reference:     reference,
		FromAccountID: &fromAccountID,
		Amount:        req.Amount,
		Type:          domain.TransactionTypeWithdraw,
		Description:   descriptionOrDefault(req.Description, domain.TransactionTypeWithdraw),
	}

	return s.commit(context.WithoutCancel(ctx), record, []mutationStep{debit})
}

func (s *MoneyMovementService) Transfer(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	logger.Info("money movement service transfer request", logger.Fields{
		"fromAccountId": req.FromAccountID,
		"toAccountId":   req.ToAccountID,
		"amount":        req.Amount.String(),
	})

	if err := validateAmount(req.Amount); err != nil {
		return domain.Transaction{}, err
	}
	if err := validateAccountID("fromAccountId", req.FromAccountID); err != nil {
		return domain.Transaction{}, err
	}
	if err := validateAccountID("toAccountId", req.ToAccountID); err != nil {
		return domain.Transaction{}, err
	}
	if strings.TrimSpace(req.FromAccountID) == strings.TrimSpace(req.ToAccountID) {
		return domain.Transaction{}, domain.NewMovementError(domain.KindSelfTransfer, "Cannot transfer to the same account", nil)
	}

	from, err := s.fetchAccount(ctx, req.FromAccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	to, err := s.fetchAccount(ctx, req.ToAccountID)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.transfer(ctx, from, to, req.Amount, req.Description)
}

func (s *MoneyMovementService) TransferByAccountNumber(ctx context.Context, req domain.TransferByAccountNumberRequest) (domain.Transaction, error) {
	logger.Info("money movement service transfer by account number request", logger.Fields{
		"fromAccountId":   req.FromAccountID,
		"toAccountNumber": req.ToAccountNumber,
		"amount":          req.Amount.String(),
		"username":        req.Username,
	})

	if err := validateAmount(req.Amount); err != nil {
		return domain.Transaction{}, err
	}
	if err := validateAccountID("fromAccountId", req.FromAccountID); err != nil {
		return domain.Transaction{}, err
	}
	if err := validateAccountID("toAccountNumber", req.ToAccountNumber); err != nil {
		return domain.Transaction{}, err
	}
	if err := s.validatePin(ctx, req.Username, req.Pin); err != nil {
		return domain.Transaction{}, err
	}

	from, err := s.fetchAccount(ctx, req.FromAccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if from.AccountNumber == strings.TrimSpace(req.ToAccountNumber) {
		return domain.Transaction{}, domain.NewMovementError(domain.KindSelfTransfer, "Cannot transfer to the same account", nil)
	}
	to, err := s.fetchAccountByNumber(ctx, strings.TrimSpace(req.ToAccountNumber))
	if err != nil {
		return domain.Transaction{}, err
	}
	if to.ID == from.ID {
		return domain.Transaction{}, domain.NewMovementError(domain.KindSelfTransfer, "Cannot transfer to the same account", nil)
	}

	return s.transfer(ctx, from, to, req.Amount, req.Description)
}

func (s *MoneyMovementService) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	logger.Info("money movement service list transactions request", logger.Fields{
		"accountId": accountID,
	})

	if err := validateAccountID("accountId", accountID); err != nil {
		return nil, err
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	transactions, err := s.ledger.ListByAccount(callCtx, strings.TrimSpace(accountID))
	if err != nil {
		logger.Error("money movement service list transactions failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, domain.NewMovementError(domain.KindServiceUnavailable, "Unable to fetch transactions right now", err)
	}

	return transactions, nil
}

// transfer runs the debit phase, then the credit phase, and only then writes
// the ledger record. Both accounts must already be fetched.
func (s *MoneyMovementService) transfer(ctx context.Context, from domain.Account, to domain.Account, amount decimal.Decimal, description string) (domain.Transaction, error) {
	if err := ensureActive(from); err != nil {
		return domain.Transaction{}, err
	}
	if err := ensureActive(to); err != nil {
		return domain.Transaction{}, err
	}
	if err := ensureSufficientBalance(from, amount, "transfer"); err != nil {
		return domain.Transaction{}, err
	}

	reference := uuid.NewString()
	reconciliation := &domain.Reconciliation{
		Reference:            reference,
		SourceAccountID:      from.ID,
		DestinationAccountID: to.ID,
		Amount:               amount,
	}

	debit := mutationStep{direction: domain.MutationDebit, accountID: from.ID, amount: amount, key: mutationKey(reference, "debit")}
	outcome, err := s.apply(ctx, debit)
	switch outcome {
	case outcomeRejected:
		logger.Error("money movement service transfer debit failed", err, logger.Fields{
			"fromAccountId": from.ID,
			"reference":     reference,
		})
		if errors.Is(err, commons.ErrInsufficientBalance) {
			return domain.Transaction{}, domain.NewMovementError(domain.KindInsufficientBalance, "Insufficient balance for transfer", err)
		}
		return domain.Transaction{}, domain.NewMovementError(domain.KindBalanceUpdateFailed, "Failed to update account balance", err)
	case outcomeUnknown:
		// The source may or may not have been debited. Compensating blindly
		// could mint money, so this goes straight to reconciliation.
		return domain.Transaction{}, s.inconsistent(ctx, reconciliation, "transfer debit outcome could not be confirmed", err)
	}

	// The debit is committed. From here on the caller going away must not
	// abort the transfer; each call is still bounded by callTimeout.
	ctx = context.WithoutCancel(ctx)

	credit := mutationStep{direction: domain.MutationCredit, accountID: to.ID, amount: amount, key: mutationKey(reference, "credit")}
	outcome, creditErr := s.apply(ctx, credit)
	switch outcome {
	case outcomeUnknown:
		return domain.Transaction{}, s.inconsistent(ctx, reconciliation, "transfer credit outcome could not be confirmed after debit", creditErr)
	case outcomeRejected:
		logger.Error("money movement service transfer credit failed after debit", creditErr, logger.Fields{
			"fromAccountId": from.ID,
			"toAccountId":   to.ID,
			"reference":     reference,
		})

		if err := s.compensate(ctx, reference, []mutationStep{debit}); err != nil {
			return domain.Transaction{}, s.inconsistent(ctx, reconciliation, "compensating credit to source failed", errors.Join(creditErr, err))
		}

		reconciliation.Compensated = true
		s.escalate(ctx, domain.ReconciliationCase{
			Kind:                 domain.KindTransferPartiallyFailed,
			Reference:            reference,
			Operation:            domain.TransactionTypeTransfer,
			SourceAccountID:      from.ID,
			DestinationAccountID: to.ID,
			Amount:               amount,
			Compensated:          true,
			Detail:               creditErr.Error(),
		})

		return domain.Transaction{}, &domain.MovementError{
			Kind:           domain.KindTransferPartiallyFailed,
			Message:        fmt.Sprintf("Transfer of %s to account %s failed; source account %s was refunded", amount.StringFixed(amountScale), to.AccountNumber, from.AccountNumber),
			Reconciliation: reconciliation,
			Err:            creditErr,
		}
	}

	fromAccountID := from.ID
	toAccountID := to.ID
	record := domain.Transaction{
		Reference:     reference,
		FromAccountID: &fromAccountID,
		ToAccountID:   &toAccountID,
		Amount:        amount,
		Type:          domain.TransactionTypeTransfer,
		Description:   descriptionOrDefault(description, domain.TransactionTypeTransfer),
	}

	return s.commit(ctx, record, []mutationStep{debit, credit})
}

// commit appends the ledger record for mutations that have all been
// accepted. If the append fails the mutations are reversed so that no balance
// change exists without its record.
func (s *MoneyMovementService) commit(ctx context.Context, record domain.Transaction, applied []mutationStep) (domain.Transaction, error) {
	record.Timestamp = s.now().UTC().Truncate(time.Microsecond)

	checksum, err := record.ComputeChecksum()
	if err == nil {
		record.Checksum = checksum

		callCtx, cancel := s.callContext(context.WithoutCancel(ctx))
		var saved domain.Transaction
		saved, err = s.ledger.Append(callCtx, record)
		cancel()
		if err == nil {
			logger.Info("money movement service transaction committed", logger.Fields{
				"transactionId": saved.ID,
				"reference":     saved.Reference,
				"type":          saved.Type,
				"amount":        saved.Amount.StringFixed(amountScale),
			})
			return saved, nil
		}
	}

	logger.Error("money movement service ledger append failed", err, logger.Fields{
		"reference": record.Reference,
		"type":      record.Type,
	})

	// The append may have committed before the error surfaced.
	callCtx, cancel := s.callContext(context.WithoutCancel(ctx))
	saved, lookupErr := s.ledger.FindByReference(callCtx, record.Reference)
	cancel()
	if lookupErr == nil {
		logger.Info("money movement service transaction found after append error", logger.Fields{
			"transactionId": saved.ID,
			"reference":     saved.Reference,
		})
		return saved, nil
	}
	if !errors.Is(lookupErr, commons.ErrRecordNotFound) {
		return domain.Transaction{}, s.stranded(ctx, record, "ledger append outcome could not be confirmed", errors.Join(err, lookupErr))
	}

	if compErr := s.compensate(ctx, record.Reference, applied); compErr != nil {
		return domain.Transaction{}, s.stranded(ctx, record, "ledger append failed and balance changes could not be reversed", errors.Join(err, compErr))
	}

	return domain.Transaction{}, domain.NewMovementError(domain.KindLedgerWriteFailed, "Failed to record transaction; balance changes were reversed", err)
}

// stranded escalates a record whose balance changes are applied but whose
// ledger entry is missing or unconfirmed.
func (s *MoneyMovementService) stranded(ctx context.Context, record domain.Transaction, detail string, cause error) error {
	source, destination := "", ""
	if record.FromAccountID != nil {
		source = *record.FromAccountID
	}
	if record.ToAccountID != nil {
		destination = *record.ToAccountID
	}

	if record.Type == domain.TransactionTypeTransfer {
		return s.inconsistent(ctx, &domain.Reconciliation{
			Reference:            record.Reference,
			SourceAccountID:      source,
			DestinationAccountID: destination,
			Amount:               record.Amount,
		}, detail, cause)
	}
	return s.unresolved(ctx, record.Type, record.Reference, source, destination, record.Amount, detail, cause)
}

func (s *MoneyMovementService) inconsistent(ctx context.Context, reconciliation *domain.Reconciliation, detail string, cause error) error {
	s.escalate(ctx, domain.ReconciliationCase{
		Kind:                 domain.KindTransferInconsistent,
		Reference:            reconciliation.Reference,
		Operation:            domain.TransactionTypeTransfer,
		SourceAccountID:      reconciliation.SourceAccountID,
		DestinationAccountID: reconciliation.DestinationAccountID,
		Amount:               reconciliation.Amount,
		Compensated:          false,
		Detail:               detailWithCause(detail, cause),
	})

	reconciliation.Compensated = false
	return &domain.MovementError{
		Kind:           domain.KindTransferInconsistent,
		Message:        "Transfer left accounts inconsistent: " + detail,
		Reconciliation: reconciliation,
		Err:            cause,
	}
}

func (s *MoneyMovementService) unresolved(ctx context.Context, operation domain.TransactionType, reference string, source string, destination string, amount decimal.Decimal, detail string, cause error) error {
	s.escalate(ctx, domain.ReconciliationCase{
		Kind:                 domain.KindMutationUnresolved,
		Reference:            reference,
		Operation:            operation,
		SourceAccountID:      source,
		DestinationAccountID: destination,
		Amount:               amount,
		Detail:               detailWithCause(detail, cause),
	})

	return &domain.MovementError{
		Kind:    domain.KindMutationUnresolved,
		Message: "Balance change could not be confirmed: " + detail,
		Reconciliation: &domain.Reconciliation{
			Reference:            reference,
			SourceAccountID:      source,
			DestinationAccountID: destination,
			Amount:               amount,
		},
		Err: cause,
	}
}

func (s *MoneyMovementService) fetchAccount(ctx context.Context, accountID string) (domain.Account, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	account, err := s.accountStore.GetAccount(callCtx, strings.TrimSpace(accountID))
	if err != nil {
		return domain.Account{}, lookupError(err, "Account not found with id: "+accountID)
	}
	return account, nil
}

func (s *MoneyMovementService) fetchAccountByNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	account, err := s.accountStore.GetAccountByNumber(callCtx, accountNumber)
	if err != nil {
		return domain.Account{}, lookupError(err, "Account not found: "+accountNumber)
	}
	return account, nil
}

func (s *MoneyMovementService) validatePin(ctx context.Context, username string, pin string) error {
	username = strings.TrimSpace(username)
	pin = strings.TrimSpace(pin)
	if username == "" || pin == "" {
		return domain.NewMovementError(domain.KindInvalidPin, "Username and PIN are required", nil)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	valid, err := s.credentials.ValidatePin(callCtx, username, pin)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NewMovementError(domain.KindInvalidPin, "Invalid PIN", nil)
		}
		logger.Error("money movement service pin validation failed", err, logger.Fields{
			"username": username,
		})
		return domain.NewMovementError(domain.KindServiceUnavailable, "Unable to validate PIN right now", err)
	}
	if !valid {
		return domain.NewMovementError(domain.KindInvalidPin, "Invalid PIN", nil)
	}
	return nil
}

func (s *MoneyMovementService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func lookupError(err error, notFoundMessage string) error {
	if errors.Is(err, commons.ErrRecordNotFound) {
		return domain.NewMovementError(domain.KindAccountNotFound, notFoundMessage, nil)
	}
	return domain.NewMovementError(domain.KindServiceUnavailable, "Unable to fetch account right now", err)
}

func detailWithCause(detail string, cause error) string {
	if cause == nil {
		return detail
	}
	return detail + ": " + cause.Error()
}
