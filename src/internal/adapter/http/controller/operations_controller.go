package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

// OperationsController serves the health probe and the reconciliation case
// log used by operators.
type OperationsController struct {
	exceptions domain.ExceptionStore
}

func NewOperationsController(exceptions domain.ExceptionStore) *OperationsController {
	return &OperationsController{exceptions: exceptions}
}

func (c *OperationsController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /health", c.health)

	var cases http.Handler = http.HandlerFunc(c.listReconciliationCases)
	if authMiddleware != nil {
		cases = authMiddleware(cases)
	}
	mux.Handle("GET /reconciliation-cases", cases)
}

func (c *OperationsController) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, commons.SuccessResponse("ok", map[string]string{"status": "UP"}))
}

func (c *OperationsController) listReconciliationCases(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	if c.exceptions == nil {
		response := commons.SuccessResponse("reconciliation cases fetched successfully", []models.ReconciliationCaseResponse{})
		writeJSON(w, http.StatusOK, response)
		logResponse(r, http.StatusOK, response, start)
		return
	}

	cases, err := c.exceptions.List(r.Context())
	if err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[[]models.ReconciliationCaseResponse]("failed to fetch reconciliation cases")
		writeJSON(w, http.StatusInternalServerError, response)
		logResponse(r, http.StatusInternalServerError, response, start)
		return
	}

	out := make([]models.ReconciliationCaseResponse, 0, len(cases))
	for _, rc := range cases {
		out = append(out, models.NewReconciliationCaseResponse(rc))
	}

	response := commons.SuccessResponse("reconciliation cases fetched successfully", out)
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
