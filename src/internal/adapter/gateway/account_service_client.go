package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountServiceClient is a domain.AccountStore backed by the account service
// HTTP API.
type AccountServiceClient struct {
	client *client
}

func NewAccountServiceClient(opts Options) *AccountServiceClient {
	return &AccountServiceClient{client: newClient("account-service", opts)}
}

func (c *AccountServiceClient) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	var resp models.AccountResponse
	if err := c.client.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountID), nil, &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.ToDomain()
}

func (c *AccountServiceClient) GetAccountByNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	var resp models.AccountResponse
	if err := c.client.do(ctx, http.MethodGet, "/accounts/number/"+url.PathEscape(accountNumber), nil, &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.ToDomain()
}

func (c *AccountServiceClient) Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	return c.mutate(ctx, "credit", accountID, amount, idempotencyKey)
}

func (c *AccountServiceClient) Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	return c.mutate(ctx, "debit", accountID, amount, idempotencyKey)
}

func (c *AccountServiceClient) GetMutation(ctx context.Context, idempotencyKey string) (domain.Mutation, error) {
	var resp models.MutationResponse
	if err := c.client.do(ctx, http.MethodGet, "/accounts/mutations/"+url.PathEscape(idempotencyKey), nil, &resp); err != nil {
		return domain.Mutation{}, err
	}
	return resp.ToDomain()
}

func (c *AccountServiceClient) mutate(ctx context.Context, action string, accountID string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	req := models.BalanceMutationRequest{Amount: amount, IdempotencyKey: idempotencyKey}

	var resp models.BalanceMutationResponse
	if err := c.client.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(accountID)+"/"+action, req, &resp); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(resp.Balance)
}
