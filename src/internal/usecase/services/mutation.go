package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

type mutationOutcome int

const (
	outcomeApplied mutationOutcome = iota
	outcomeRejected
	outcomeUnknown
)

func (o mutationOutcome) String() string {
	switch o {
	case outcomeApplied:
		return "applied"
	case outcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type mutationStep struct {
	direction domain.MutationDirection
	accountID string
	amount    decimal.Decimal
	key       string
}

func (m mutationStep) reversed(key string) mutationStep {
	direction := domain.MutationCredit
	if m.direction == domain.MutationCredit {
		direction = domain.MutationDebit
	}
	return mutationStep{direction: direction, accountID: m.accountID, amount: m.amount, key: key}
}

func mutationKey(reference string, step string) string {
	return reference + ":" + step
}

// apply issues one Credit or Debit exactly once. A failure that is not a
// definitive rejection leaves the outcome unknown, so the journal is queried
// before anything is concluded. The call is never retried here.
func (s *MoneyMovementService) apply(ctx context.Context, step mutationStep) (mutationOutcome, error) {
	callCtx, cancel := s.callContext(ctx)
	var err error
	if step.direction == domain.MutationDebit {
		_, err = s.accountStore.Debit(callCtx, step.accountID, step.amount, step.key)
	} else {
		_, err = s.accountStore.Credit(callCtx, step.accountID, step.amount, step.key)
	}
	cancel()

	if err == nil {
		return outcomeApplied, nil
	}
	if isDefinitiveRejection(err) {
		logger.Info("money movement service mutation rejected", logger.Fields{
			"accountId":      step.accountID,
			"direction":      step.direction,
			"idempotencyKey": step.key,
			"reason":         err.Error(),
		})
		return outcomeRejected, err
	}

	logger.Warn("money movement service mutation outcome unknown", logger.Fields{
		"accountId":      step.accountID,
		"direction":      step.direction,
		"idempotencyKey": step.key,
		"reason":         err.Error(),
	})

	return s.resolve(ctx, step, err)
}

// resolve re-queries the account store journal for the mutation's key. It
// runs detached from the caller's cancellation because abandoning it would
// leave the outcome undecided.
func (s *MoneyMovementService) resolve(ctx context.Context, step mutationStep, cause error) (mutationOutcome, error) {
	callCtx, cancel := s.callContext(context.WithoutCancel(ctx))
	defer cancel()

	mutation, err := s.accountStore.GetMutation(callCtx, step.key)
	if err == nil {
		if mutation.AccountID != step.accountID || mutation.Direction != step.direction || !mutation.Amount.Equal(step.amount) {
			return outcomeUnknown, fmt.Errorf("journal entry %s does not match mutation: %w", step.key, commons.ErrIdempotencyConflict)
		}
		logger.Info("money movement service mutation resolved as applied", logger.Fields{
			"accountId":      step.accountID,
			"idempotencyKey": step.key,
		})
		return outcomeApplied, nil
	}
	if errors.Is(err, commons.ErrRecordNotFound) {
		logger.Info("money movement service mutation resolved as not applied", logger.Fields{
			"accountId":      step.accountID,
			"idempotencyKey": step.key,
		})
		return outcomeRejected, cause
	}

	logger.Error("money movement service mutation could not be resolved", err, logger.Fields{
		"accountId":      step.accountID,
		"idempotencyKey": step.key,
	})
	return outcomeUnknown, fmt.Errorf("%w; resolve mutation %s: %v", cause, step.key, err)
}

// compensate undoes already applied steps, newest first. It stops at the
// first step that cannot be confirmed undone.
func (s *MoneyMovementService) compensate(ctx context.Context, reference string, applied []mutationStep) error {
	detached := context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i].reversed(mutationKey(reference, "compensate-"+string(applied[i].direction)))
		outcome, err := s.apply(detached, step)
		if outcome != outcomeApplied {
			return fmt.Errorf("compensate %s on account %s (%s): %w", applied[i].direction, applied[i].accountID, outcome, err)
		}
	}
	return nil
}

// escalate writes the case to the exception log and, for the kinds that need
// an operator, raises an alert. Failures here are logged, never returned.
func (s *MoneyMovementService) escalate(ctx context.Context, reconciliationCase domain.ReconciliationCase) {
	detached := context.WithoutCancel(ctx)
	fields := logger.Fields{
		"kind":                 reconciliationCase.Kind,
		"reference":            reconciliationCase.Reference,
		"operation":            reconciliationCase.Operation,
		"sourceAccountId":      reconciliationCase.SourceAccountID,
		"destinationAccountId": reconciliationCase.DestinationAccountID,
		"amount":               reconciliationCase.Amount.StringFixed(amountScale),
		"compensated":          reconciliationCase.Compensated,
		"detail":               reconciliationCase.Detail,
	}

	severe := reconciliationCase.Kind == domain.KindTransferInconsistent || reconciliationCase.Kind == domain.KindMutationUnresolved
	if severe {
		logger.Error("money movement service reconciliation required", nil, fields)
	} else {
		logger.Warn("money movement service compensated failure", fields)
	}

	if s.exceptions != nil {
		callCtx, cancel := s.callContext(detached)
		recorded, err := s.exceptions.Record(callCtx, reconciliationCase)
		cancel()
		if err != nil {
			logger.Error("money movement service record reconciliation case failed", err, fields)
		} else {
			reconciliationCase = recorded
		}
	}

	if severe && s.alerter != nil {
		callCtx, cancel := s.callContext(detached)
		err := s.alerter.Alert(callCtx, reconciliationCase)
		cancel()
		if err != nil {
			logger.Error("money movement service alert failed", err, fields)
		}
	}
}

func isDefinitiveRejection(err error) bool {
	return errors.Is(err, commons.ErrRecordNotFound) ||
		errors.Is(err, commons.ErrInsufficientBalance) ||
		errors.Is(err, commons.ErrAccountNotActive) ||
		errors.Is(err, commons.ErrServiceUnavailable) ||
		errors.Is(err, commons.ErrIdempotencyConflict)
}
