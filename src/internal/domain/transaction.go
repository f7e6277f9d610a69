package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

func (t TransactionType) DefaultDescription() string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdraw:
		return "Withdrawal"
	case TransactionTypeTransfer:
		return "Transfer"
	default:
		return ""
	}
}

type Transaction struct {
	ID            int64
	Reference     string
	FromAccountID *string
	ToAccountID   *string
	Amount        decimal.Decimal
	Type          TransactionType
	Timestamp     time.Time
	Description   string
	Checksum      string
}

// checksumShape is the canonical view of a transaction used for hashing. The
// store assigned ID is excluded so the checksum can be computed before insert.
type checksumShape struct {
	Reference     string  `json:"reference"`
	FromAccountID *string `json:"from_account_id"`
	ToAccountID   *string `json:"to_account_id"`
	Amount        string  `json:"amount"`
	Type          string  `json:"type"`
	Timestamp     string  `json:"timestamp"`
	Description   string  `json:"description"`
}

// ComputeChecksum returns the hex SHA-256 of the RFC 8785 canonical JSON of the
// record's business fields.
func (t Transaction) ComputeChecksum() (string, error) {
	raw, err := json.Marshal(checksumShape{
		Reference:     t.Reference,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount.StringFixed(2),
		Type:          string(t.Type),
		Timestamp:     t.Timestamp.UTC().Format(time.RFC3339Nano),
		Description:   t.Description,
	})
	if err != nil {
		return "", fmt.Errorf("marshal transaction checksum shape: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize transaction: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func (t Transaction) VerifyChecksum() bool {
	expected, err := t.ComputeChecksum()
	if err != nil {
		return false
	}
	return expected == t.Checksum
}

// Involves reports whether the account is the source or destination.
func (t Transaction) Involves(accountID string) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}
