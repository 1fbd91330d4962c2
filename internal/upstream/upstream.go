// Package upstream holds the JSON-over-HTTP call shared by the clients of the
// OpenAI-style speech and completion endpoints.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"voice-ingest-go/internal/types"
)

// Error is a failure reported by the remote service. Message is the upstream
// text, unmodified.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// errorBody matches both {"error":{"message":...}} and {"error":"..."}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// ErrorMessage extracts the error field of a response body, if any.
func ErrorMessage(body []byte) (string, bool) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Error) == 0 || string(eb.Error) == "null" {
		return "", false
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(eb.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	var s string
	if err := json.Unmarshal(eb.Error, &s); err == nil && s != "" {
		return s, true
	}
	return strings.TrimSpace(string(eb.Error)), true
}

// Caller performs requests with transport-level retry.
type Caller struct {
	HTTP       *http.Client
	MaxRetries uint64
	// MaxElapsed bounds the whole retry loop; zero keeps the backoff default.
	MaxElapsed time.Duration
}

func NewCaller(timeout time.Duration, maxRetries int) *Caller {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Caller{
		HTTP:       &http.Client{Timeout: timeout},
		MaxRetries: uint64(maxRetries),
	}
}

// Authorize sets the bearer key and, when present, the organization header.
func Authorize(req *http.Request, creds types.Credentials) {
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	if creds.OrganizationID != "" {
		req.Header.Set("OpenAI-Organization", creds.OrganizationID)
	}
}

// DoJSON sends the request built by newReq and decodes a 2xx body into
// target. newReq is invoked once per attempt so bodies can be replayed.
// Network errors, 429 and 5xx are retried; everything else is final.
func (c *Caller) DoJSON(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error), target interface{}) error {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	var lastErr error
	op := func() error {
		req, err := newReq(ctx)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := hc.Do(req)
		if err != nil {
			lastErr = &Error{Message: err.Error()}
			if ctx.Err() != nil {
				return backoff.Permanent(lastErr)
			}
			return lastErr
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = &Error{StatusCode: resp.StatusCode, Message: err.Error()}
			return lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, ok := ErrorMessage(body)
			if !ok {
				msg = fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
			lastErr = &Error{StatusCode: resp.StatusCode, Message: msg}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return lastErr
			}
			return backoff.Permanent(lastErr)
		}

		if msg, ok := ErrorMessage(body); ok {
			lastErr = &Error{StatusCode: resp.StatusCode, Message: msg}
			return backoff.Permanent(lastErr)
		}
		if len(body) == 0 {
			lastErr = &Error{StatusCode: resp.StatusCode, Message: "empty body"}
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = &Error{StatusCode: resp.StatusCode, Message: fmt.Sprintf("json decode error: %v body=%s", err, string(body))}
			return backoff.Permanent(lastErr)
		}
		lastErr = nil
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	if c.MaxElapsed > 0 {
		eb.MaxElapsedTime = c.MaxElapsed
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, c.MaxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if lastErr == nil {
			return err
		}
		return lastErr
	}
	return nil
}

// IsUpstream reports whether err came from the remote side.
func IsUpstream(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}
