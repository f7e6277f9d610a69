package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type ErrorKind string

const (
	KindInvalidAmount           ErrorKind = "INVALID_AMOUNT"
	KindValidationFailed        ErrorKind = "VALIDATION_FAILED"
	KindAccountNotFound         ErrorKind = "ACCOUNT_NOT_FOUND"
	KindAccountInactive         ErrorKind = "ACCOUNT_INACTIVE"
	KindInsufficientBalance     ErrorKind = "INSUFFICIENT_BALANCE"
	KindInvalidPin              ErrorKind = "INVALID_PIN"
	KindSelfTransfer            ErrorKind = "SELF_TRANSFER"
	KindServiceUnavailable      ErrorKind = "SERVICE_UNAVAILABLE"
	KindBalanceUpdateFailed     ErrorKind = "BALANCE_UPDATE_FAILED"
	KindLedgerWriteFailed       ErrorKind = "LEDGER_WRITE_FAILED"
	KindTransferPartiallyFailed ErrorKind = "TRANSFER_PARTIALLY_FAILED"
	KindTransferInconsistent    ErrorKind = "TRANSFER_INCONSISTENT"
	KindMutationUnresolved      ErrorKind = "MUTATION_UNRESOLVED"
)

var (
	ErrInvalidAmount           = &MovementError{Kind: KindInvalidAmount}
	ErrValidationFailed        = &MovementError{Kind: KindValidationFailed}
	ErrAccountNotFound         = &MovementError{Kind: KindAccountNotFound}
	ErrAccountInactive         = &MovementError{Kind: KindAccountInactive}
	ErrInsufficientBalance     = &MovementError{Kind: KindInsufficientBalance}
	ErrInvalidPin              = &MovementError{Kind: KindInvalidPin}
	ErrSelfTransfer            = &MovementError{Kind: KindSelfTransfer}
	ErrServiceUnavailable      = &MovementError{Kind: KindServiceUnavailable}
	ErrBalanceUpdateFailed     = &MovementError{Kind: KindBalanceUpdateFailed}
	ErrLedgerWriteFailed       = &MovementError{Kind: KindLedgerWriteFailed}
	ErrTransferPartiallyFailed = &MovementError{Kind: KindTransferPartiallyFailed}
	ErrTransferInconsistent    = &MovementError{Kind: KindTransferInconsistent}
	ErrMutationUnresolved      = &MovementError{Kind: KindMutationUnresolved}
)

// Reconciliation carries what an operator needs to settle a transfer whose
// debit committed but whose credit did not.
type Reconciliation struct {
	Reference            string
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Compensated          bool
}

// MovementError is the typed failure returned by every money movement
// operation. Compare with errors.Is against the Err* sentinels.
type MovementError struct {
	Kind           ErrorKind
	Message        string
	Reconciliation *Reconciliation
	Err            error
}

func NewMovementError(kind ErrorKind, message string, err error) *MovementError {
	return &MovementError{Kind: kind, Message: message, Err: err}
}

func (e *MovementError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MovementError) Unwrap() error {
	return e.Err
}

func (e *MovementError) Is(target error) bool {
	t, ok := target.(*MovementError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable is false for anything that may have left a committed mutation
// behind. Only failures with no side effect may be retried by the caller.
func (e *MovementError) Retryable() bool {
	switch e.Kind {
	case KindBalanceUpdateFailed, KindServiceUnavailable, KindLedgerWriteFailed:
		return true
	default:
		return false
	}
}

// RequiresReconciliation marks the high-severity kinds that must be settled
// out of band.
func (e *MovementError) RequiresReconciliation() bool {
	return e.Kind == KindTransferInconsistent || e.Kind == KindMutationUnresolved
}

func KindOf(err error) (ErrorKind, bool) {
	var movementErr *MovementError
	if errors.As(err, &movementErr) {
		return movementErr.Kind, true
	}
	return "", false
}
