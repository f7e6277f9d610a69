package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountStoreController exposes a domain.AccountStore over HTTP so that the
// coordinator can run against it remotely.
type AccountStoreController struct {
	store domain.AccountStore
}

func NewAccountStoreController(store domain.AccountStore) *AccountStoreController {
	return &AccountStoreController{store: store}
}

func (c *AccountStoreController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	routes := map[string]http.HandlerFunc{
		"GET /accounts/{id}":                   c.getAccount,
		"GET /accounts/number/{accountNumber}": c.getAccountByNumber,
		"POST /accounts/{id}/credit":           c.credit,
		"POST /accounts/{id}/debit":            c.debit,
		"GET /accounts/mutations/{key}":        c.getMutation,
	}

	for pattern, handler := range routes {
		var h http.Handler = handler
		if authMiddleware != nil {
			h = authMiddleware(h)
		}
		mux.Handle(pattern, h)
	}
}

func (c *AccountStoreController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	account, err := c.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError[models.AccountResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("account fetched successfully", models.NewAccountResponse(account))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountStoreController) getAccountByNumber(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	account, err := c.store.GetAccountByNumber(r.Context(), r.PathValue("accountNumber"))
	if err != nil {
		writeStoreError[models.AccountResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("account fetched successfully", models.NewAccountResponse(account))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountStoreController) credit(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, c.store.Credit)
}

func (c *AccountStoreController) debit(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, c.store.Debit)
}

type mutationFunc func(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error)

func (c *AccountStoreController) mutate(w http.ResponseWriter, r *http.Request, apply mutationFunc) {
	start := time.Now()

	var req models.BalanceMutationRequest
	if !decodeBody(w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.BalanceMutationResponse]("validation failed", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	if !req.Amount.IsPositive() {
		response := commons.ErrorResponse[models.BalanceMutationResponse]("validation failed", "amount must be greater than zero")
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	accountID := r.PathValue("id")
	balance, err := apply(r.Context(), accountID, req.Amount, req.IdempotencyKey)
	if err != nil {
		writeStoreError[models.BalanceMutationResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("balance updated successfully", models.BalanceMutationResponse{
		AccountID:      accountID,
		IdempotencyKey: req.IdempotencyKey,
		Balance:        balance.StringFixed(2),
	})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountStoreController) getMutation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	mutation, err := c.store.GetMutation(r.Context(), r.PathValue("key"))
	if err != nil {
		writeStoreError[models.MutationResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("mutation fetched successfully", models.NewMutationResponse(mutation))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

// writeStoreError carries the store sentinel as a wire code in Errors so the
// remote client can restore it.
func writeStoreError[T any](w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	status := storeStatus(err)
	if status >= http.StatusInternalServerError {
		logError(r, err, nil)
	}

	response := commons.SentinelResponse[T](err)
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}
