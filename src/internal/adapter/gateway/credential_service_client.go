package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

// CredentialServiceClient is a domain.CredentialValidator backed by the
// POST /auth/validate-pin endpoint.
type CredentialServiceClient struct {
	client *client
}

func NewCredentialServiceClient(opts Options) *CredentialServiceClient {
	return &CredentialServiceClient{client: newClient("credential-service", opts)}
}

func (c *CredentialServiceClient) ValidatePin(ctx context.Context, username string, pin string) (bool, error) {
	req := models.ValidatePinRequest{Username: username, Pin: pin}

	var resp models.ValidatePinResponse
	err := c.client.do(ctx, http.MethodPost, "/auth/validate-pin", req, &resp)
	if err == nil {
		return resp.IsValidPin, nil
	}

	var se *statusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized:
			return false, nil
		case http.StatusNotFound:
			return false, domain.ErrUserNotFound
		}
	}
	return false, err
}
