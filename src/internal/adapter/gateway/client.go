package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/sony/gobreaker"
)

const (
	breakerConsecutiveFailures = 5
	breakerOpenTimeout         = 30 * time.Second
	maxResponseBytes           = 1 << 20
)

// Options configures a remote client. ChannelID and ChannelKey are sent as
// basic auth credentials.
type Options struct {
	BaseURL    string
	ChannelID  string
	ChannelKey string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// statusError is a non-2xx reply that carried no known error code.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type client struct {
	name    string
	opts    Options
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newClient(name string, opts Options) *client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &client{name: name, opts: opts, http: httpClient}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		// Business rejections mean the service is healthy.
		IsSuccessful: func(err error) bool {
			return err == nil || isBusinessRejection(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("gateway circuit breaker state change", logger.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return c
}

// do sends one request through the breaker. A request the breaker refuses is
// reported as commons.ErrServiceUnavailable since it never left the process.
func (c *client) do(ctx context.Context, method string, path string, body any, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logger.Warn("gateway request rejected by circuit breaker", logger.Fields{
			"service": c.name,
			"method":  method,
			"path":    path,
		})
		return fmt.Errorf("%s: %w: %v", c.name, commons.ErrServiceUnavailable, err)
	}
	return err
}

func (c *client) send(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w: %v", c.name, commons.ErrServiceUnavailable, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w: %v", c.name, commons.ErrServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.ChannelID != "" {
		req.SetBasicAuth(c.opts.ChannelID, c.opts.ChannelKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", c.name, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.name, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil {
			for _, code := range env.Errors {
				if sentinel, ok := commons.ErrorFromCode(code); ok {
					return sentinel
				}
			}
		}
		// A basic auth challenge means the channel credentials were refused
		// and the handler never ran.
		if resp.StatusCode == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") != "" {
			return fmt.Errorf("%s: rejected credentials: %w", c.name, commons.ErrServiceUnavailable)
		}
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &statusError{Status: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode response data: %w", c.name, err)
		}
	}
	return nil
}

func isBusinessRejection(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Status < http.StatusInternalServerError
	}
	_, ok := commons.ErrorCode(err)
	return ok || errors.Is(err, domain.ErrUserNotFound)
}
