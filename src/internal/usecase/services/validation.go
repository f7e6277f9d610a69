package services

import (
	"fmt"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

const amountScale = 2

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewMovementError(domain.KindInvalidAmount, "Amount must be greater than zero", nil)
	}
	if !amount.Equal(amount.Round(amountScale)) {
		return domain.NewMovementError(domain.KindInvalidAmount, fmt.Sprintf("Amount must have at most %d decimal places", amountScale), nil)
	}
	return nil
}

func validateAccountID(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewMovementError(domain.KindValidationFailed, field+" is required", nil)
	}
	return nil
}

func ensureActive(account domain.Account) error {
	switch account.Status {
	case domain.AccountStatusActive:
		return nil
	case domain.AccountStatusFrozen:
		return domain.NewMovementError(domain.KindAccountInactive, fmt.Sprintf("Account %s is frozen", account.AccountNumber), nil)
	case domain.AccountStatusClosed:
		return domain.NewMovementError(domain.KindAccountInactive, fmt.Sprintf("Account %s is closed", account.AccountNumber), nil)
	default:
		return domain.NewMovementError(domain.KindAccountInactive, fmt.Sprintf("Account %s has unknown status %s", account.AccountNumber, account.Status), nil)
	}
}

func ensureSufficientBalance(account domain.Account, amount decimal.Decimal, operation string) error {
	if account.Balance.LessThan(amount) {
		return domain.NewMovementError(domain.KindInsufficientBalance, "Insufficient balance for "+operation, nil)
	}
	return nil
}

func descriptionOrDefault(description string, transactionType domain.TransactionType) string {
	if trimmed := strings.TrimSpace(description); trimmed != "" {
		return trimmed
	}
	return transactionType.DefaultDescription()
}
