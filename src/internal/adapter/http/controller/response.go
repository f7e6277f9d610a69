package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindInvalidAmount:           http.StatusBadRequest,
	domain.KindValidationFailed:        http.StatusBadRequest,
	domain.KindSelfTransfer:            http.StatusBadRequest,
	domain.KindInvalidPin:              http.StatusUnauthorized,
	domain.KindAccountNotFound:         http.StatusNotFound,
	domain.KindAccountInactive:         http.StatusConflict,
	domain.KindInsufficientBalance:     http.StatusUnprocessableEntity,
	domain.KindBalanceUpdateFailed:     http.StatusServiceUnavailable,
	domain.KindServiceUnavailable:      http.StatusServiceUnavailable,
	domain.KindTransferPartiallyFailed: http.StatusConflict,
	domain.KindTransferInconsistent:    http.StatusInternalServerError,
	domain.KindMutationUnresolved:      http.StatusInternalServerError,
	domain.KindLedgerWriteFailed:       http.StatusInternalServerError,
}

// movementStatus maps a coordinator failure to its HTTP status. Untyped
// errors are treated as internal.
func movementStatus(err error) int {
	kind, ok := domain.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// storeStatus maps account store sentinels for the account service API.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, commons.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, commons.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commons.ErrAccountNotActive), errors.Is(err, commons.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, commons.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
