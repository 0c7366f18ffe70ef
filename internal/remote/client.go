// Package remote implements the four domain services over the HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/session"

	"github.com/sirupsen/logrus"
)

// Client issues JSON requests against the complaints API. Each request
// carries a bearer token for the session user of its context.
type Client struct {
	httpClient *http.Client
	tokens     *session.Tokens
	baseURL    string
	maxRetries int
	log        *logrus.Entry
}

// ClientConfig configures the client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Tokens signs the bearer token; it must share the server's secret.
	Tokens *session.Tokens
	Logger *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tokens:     cfg.Tokens,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: maxRetries,
		log:        logging.Component(cfg.Logger, "remote"),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends the request and decodes a successful response into out. GET
// requests are retried on transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	defer func() { metrics.RecordServiceCall("remote", op, err) }()

	var payload []byte
	if in != nil {
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	for attempt := 1; ; attempt++ {
		err = c.once(ctx, method, target, payload, out)
		if err == nil || attempt >= attempts || !retryable(err) || ctx.Err() != nil {
			return err
		}
		c.log.WithError(err).WithFields(logrus.Fields{"op": op, "attempt": attempt}).Warn("Retrying request")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
}

// transientError marks failures worth another attempt.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

func (c *Client) once(ctx context.Context, method, target string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Issue(session.UserID(ctx))
		if err != nil {
			return fmt.Errorf("failed to issue session token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Store(&transientError{fmt.Errorf("request failed: %w", err)})
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<20))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(out); err != nil {
		return apperr.Store(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// statusError maps an error response onto the error taxonomy.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return classified(apperr.ErrNotFound, msg)
	case resp.StatusCode == http.StatusBadRequest:
		return classified(apperr.ErrValidation, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return apperr.Store(&transientError{fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)})
	default:
		return apperr.Store(fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg))
	}
}

// classified wraps msg in sentinel, dropping the sentinel text the server
// already rendered.
func classified(sentinel error, msg string) error {
	return fmt.Errorf("%w: %s", sentinel, strings.TrimPrefix(msg, sentinel.Error()+": "))
}

func escape(id string) string {
	return url.PathEscape(id)
}
