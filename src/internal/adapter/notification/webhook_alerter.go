package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

const webhookTimeout = 5 * time.Second

// WebhookAlerter posts reconciliation cases to an operator webhook.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

type alertPayload struct {
	Event string                            `json:"event"`
	Case  models.ReconciliationCaseResponse `json:"case"`
}

func (a *WebhookAlerter) Alert(ctx context.Context, reconciliationCase domain.ReconciliationCase) error {
	payload := alertPayload{
		Event: "reconciliation.required",
		Case:  models.NewReconciliationCaseResponse(reconciliationCase),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BankLedger-Alert/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}

	logger.Info("webhook alerter alert delivered", logger.Fields{
		"reference": reconciliationCase.Reference,
		"kind":      reconciliationCase.Kind,
		"status":    resp.StatusCode,
	})
	return nil
}
