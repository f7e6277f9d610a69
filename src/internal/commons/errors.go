package commons

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrAccountNotActive = errors.New("Account is not active")

// ErrServiceUnavailable means the call was never delivered to the remote
// service, so it cannot have produced a side effect.
var ErrServiceUnavailable = errors.New("Service unavailable")

var ErrIdempotencyConflict = errors.New("Idempotency key reused with different mutation")

// Wire codes let the account service HTTP API carry these errors to remote
// clients without string matching on messages.
var errorCodes = map[string]error{
	"RECORD_NOT_FOUND":     ErrRecordNotFound,
	"INSUFFICIENT_BALANCE": ErrInsufficientBalance,
	"ACCOUNT_NOT_ACTIVE":   ErrAccountNotActive,
	"IDEMPOTENCY_CONFLICT": ErrIdempotencyConflict,
}

// ErrorCode returns the wire code for one of the sentinels above.
func ErrorCode(err error) (string, bool) {
	for code, sentinel := range errorCodes {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return "", false
}

func ErrorFromCode(code string) (error, bool) {
	err, ok := errorCodes[code]
	return err, ok
}
