// Package client talks to the remote stock API that owns materials, products and
// the transaction history.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/metrics"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 << 20

// StockAPI is the HTTP client for the remote stock API
type StockAPI struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// New creates a stock API client from configuration
func New(cfg *config.StockAPIConfig, m *metrics.Metrics, log *logger.Logger) *StockAPI {
	return &StockAPI{
		baseURL:        cfg.BaseURL,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		metrics:        m,
		logger:         log.WithComponent("stock-api-client"),
	}
}

// retryableError marks a failure worth another attempt
type retryableError struct {
	status  int
	message string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("stock API responded %d: %s", e.status, e.message)
}

// do issues one logical call, retrying transport errors, 429 and 5xx with exponential backoff.
// out may be nil when the response body is not needed.
func (c *StockAPI) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Internal("failed to encode stock API request")
		}
	}

	// One key per logical call so the remote side can deduplicate retried mutations
	idempotencyKey := ""
	if method != http.MethodGet {
		idempotencyKey = uuid.NewString()
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveStockAPIDuration(operation, time.Since(start))
	}()

	attempt := 0
	call := func() error {
		attempt++
		err := c.attempt(ctx, method, path, payload, idempotencyKey, out)
		if err == nil {
			c.metrics.ObserveStockAPI(operation, metrics.OutcomeSuccess)
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			c.metrics.ObserveStockAPI(operation, metrics.OutcomeClientError)
			return err
		}

		c.metrics.ObserveStockAPI(operation, metrics.OutcomeRetried)
		c.logger.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Msg("stock API call failed")
		return err
	}

	err := backoff.Retry(call, backoff.WithContext(c.policy(), ctx))
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	// the caller gave up, the remote side is not to blame
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	c.metrics.ObserveStockAPI(operation, metrics.OutcomeUnavailable)
	c.logger.Error().
		Err(err).
		Str("operation", operation).
		Int("attempts", attempt).
		Msg("stock API unavailable")
	return errors.Unavailable("stock API is unavailable", err)
}

func (c *StockAPI) policy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = c.maxBackoff
	policy.MaxElapsedTime = 0
	policy.Reset()

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(policy, uint64(retries))
}

func (c *StockAPI) attempt(ctx context.Context, method, path string, payload []byte, idempotencyKey string, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return backoff.Permanent(errors.Internal("failed to build stock API request"))
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := httputil.GetBearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID := httputil.GetRequestID(ctx); requestID != "" {
		req.Header.Set(httputil.RequestIDHeader, requestID)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read stock API response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := decodeEnvelope(raw, out); err != nil {
			return backoff.Permanent(errors.Unavailable("stock API returned an unreadable response", err))
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &retryableError{status: resp.StatusCode, message: errorMessage(resp.StatusCode, raw)}
	default:
		return backoff.Permanent(mapStatus(resp.StatusCode, raw))
	}
}

// decodeEnvelope accepts both {"success":true,"data":...} and bare JSON
func decodeEnvelope(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func mapStatus(status int, raw []byte) *errors.AppError {
	message := errorMessage(status, raw)
	switch status {
	case http.StatusNotFound:
		return errors.New("NOT_FOUND", message, http.StatusNotFound)
	case http.StatusConflict:
		return errors.Conflict(message)
	case http.StatusUnauthorized:
		return errors.Unauthorized(message)
	case http.StatusForbidden:
		return errors.Forbidden(message)
	default:
		return errors.BadRequest(message)
	}
}

// errorMessage pulls a human readable message out of an error body
func errorMessage(status int, raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var nested struct {
			Message string `json:"message"`
		}
		var plain string
		switch {
		case len(body.Error) > 0 && json.Unmarshal(body.Error, &nested) == nil && nested.Message != "":
			return nested.Message
		case len(body.Error) > 0 && json.Unmarshal(body.Error, &plain) == nil && plain != "":
			return plain
		case body.Message != "":
			return body.Message
		}
	}
	return http.StatusText(status)
}
