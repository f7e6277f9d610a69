package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReconciliationCase struct {
	ID                   string
	Kind                 ErrorKind
	Reference            string
	Operation            TransactionType
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Compensated          bool
	Detail               string
	CreatedAt            time.Time
}
