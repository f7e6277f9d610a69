package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type CredentialController struct {
	validator domain.CredentialValidator
}

func NewCredentialController(validator domain.CredentialValidator) *CredentialController {
	return &CredentialController{validator: validator}
}

func (c *CredentialController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	var handler http.Handler = http.HandlerFunc(c.validatePin)
	if authMiddleware != nil {
		handler = authMiddleware(handler)
	}
	mux.Handle("POST /auth/validate-pin", handler)
}

func (c *CredentialController) validatePin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ValidatePinRequest
	if !decodeBody(w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.ValidatePinResponse]("validation failed", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	valid, err := c.validator.ValidatePin(r.Context(), req.Username, req.Pin)
	if err != nil {
		status := http.StatusInternalServerError
		response := commons.ErrorResponse[models.ValidatePinResponse]("failed to verify pin", "Unable to verify pin right now")
		if errors.Is(err, domain.ErrUserNotFound) {
			status = http.StatusNotFound
			response = commons.ErrorResponse[models.ValidatePinResponse]("User not found")
		} else {
			logError(r, err, nil)
		}
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	if !valid {
		response := commons.ErrorResponse[models.ValidatePinResponse]("invalid pin", "provided pin does not match")
		writeJSON(w, http.StatusUnauthorized, response)
		logResponse(r, http.StatusUnauthorized, response, start)
		return
	}

	response := commons.SuccessResponse("pin verified successfully", models.ValidatePinResponse{
		Username:   req.Username,
		IsValidPin: true,
	})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
