package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

type TransactionController struct {
	service service_interfaces.MoneyMovementService
}

func NewTransactionController(service service_interfaces.MoneyMovementService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	routes := map[string]http.HandlerFunc{
		"POST /transactions/deposit":                    c.deposit,
		"POST /transactions/withdraw":                   c.withdraw,
		"POST /transactions/transfer":                   c.transfer,
		"POST /transactions/transfer-by-account-number": c.transferByAccountNumber,
		"GET /transactions/account/{accountId}":         c.listByAccount,
	}

	for pattern, handler := range routes {
		var h http.Handler = handler
		if authMiddleware != nil {
			h = authMiddleware(h)
		}
		mux.Handle(pattern, h)
	}
}

func (c *TransactionController) deposit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.DepositRequest
	if !decodeBody(w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, r, err, start)
		return
	}

	transaction, err := c.service.Deposit(r.Context(), req.ToDomain())
	c.respond(w, r, transaction, err, start)
}

func (c *TransactionController) withdraw(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.WithdrawRequest
	if !decodeBody(w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, r, err, start)
		return
	}

	transaction, err := c.service.Withdraw(r.Context(), req.ToDomain())
	c.respond(w, r, transaction, err, start)
}

func (c *TransactionController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TransferRequest
	if !decodeBody(w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, r, err, start)
		return
	}

	transaction, err := c.service.Transfer(r.Context(), req.ToDomain())
	c.respond(w, r, transaction, err, start)
}

func (c *TransactionController) transferByAccountNumber(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TransferByAccountNumberRequest
	if !decodeBody(w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, r, err, start)
		return
	}

	transaction, err := c.service.TransferByAccountNumber(r.Context(), req.ToDomain())
	c.respond(w, r, transaction, err, start)
}

func (c *TransactionController) listByAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	transactions, err := c.service.ListTransactions(r.Context(), r.PathValue("accountId"))
	if err != nil {
		logError(r, err, nil)
		status := movementStatus(err)
		response := models.NewMovementErrorResponse(err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := commons.SuccessResponse("transactions fetched successfully", models.NewTransactionResponses(transactions))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) respond(w http.ResponseWriter, r *http.Request, transaction domain.Transaction, err error, start time.Time) {
	if err != nil {
		status := movementStatus(err)
		kind, _ := domain.KindOf(err)
		logError(r, err, logger.Fields{"kind": kind, "status": status})

		response := models.NewMovementErrorResponse(err)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := commons.SuccessResponse("transaction completed successfully", models.NewTransactionResponse(transaction))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

// decodeBody reads the JSON body into dst. It writes the 400 response itself
// and returns false when the body cannot be decoded.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, start time.Time) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[any]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return false
	}
	logRequest(r, dst)
	return true
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	logError(r, err, nil)
	response := models.MovementErrorResponse{
		Message: err.Error(),
		Kind:    string(domain.KindValidationFailed),
	}
	writeJSON(w, http.StatusBadRequest, response)
	logResponse(r, http.StatusBadRequest, response, start)
}
