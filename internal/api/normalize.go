package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/rentportal/rentportal-cli/internal/credstore"
)

// responseError carries a non-2xx backend response to the normalizer.
type responseError struct {
	StatusCode int
	Body       []byte
}

func (e *responseError) Error() string {
	return fmt.Sprintf("backend responded with status %d", e.StatusCode)
}

// operation names what an endpoint call was trying to do, for error messages.
type operation struct {
	action   string // verb phrase, e.g. "fetch payments"
	resource string // noun for 404s, e.g. "Payment"
}

// normalize classifies err into exactly one *Error. Errors that are already
// normalized pass through unchanged so wrapping layers never re-classify.
func (c *Client) normalize(ctx context.Context, err error, op operation) *Error {
	if e, ok := AsError(err); ok {
		return e
	}

	switch {
	case errors.Is(err, context.Canceled):
		return newError(CategoryCancelled, fmt.Sprintf("Request to %s was cancelled", op.action))
	case isTimeout(err):
		return &Error{
			Category: CategoryNetwork,
			Message:  "The request timed out. Please check your connection and try again.",
			Details:  err.Error(),
		}
	}

	var respErr *responseError
	if errors.As(err, &respErr) {
		return c.normalizeResponse(ctx, respErr, op)
	}

	return &Error{
		Category: CategoryNetwork,
		Message:  "Unable to reach the server. Please check your internet connection.",
		Details:  err.Error(),
	}
}

func (c *Client) normalizeResponse(ctx context.Context, respErr *responseError, op operation) *Error {
	e := &Error{
		StatusCode: respErr.StatusCode,
		Details:    responseDetails(respErr.Body),
	}

	status := respErr.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		e.Category = CategoryAuth
		e.Message = "Your session has expired. Please log in again."
		// The clear must stand even if the caller has since been cancelled.
		if err := credstore.ClearTokens(context.WithoutCancel(ctx), c.Store); err != nil {
			slog.Warn("failed to clear credentials after 401", "error", err)
		}
	case status == http.StatusForbidden:
		e.Category = CategoryClient
		e.Message = fmt.Sprintf("You are not authorized to %s", op.action)
	case status == http.StatusNotFound:
		e.Category = CategoryClient
		e.Message = fmt.Sprintf("%s not found", op.resource)
	case status >= 500:
		e.Category = CategoryServer
		e.Message = fmt.Sprintf("Server error while trying to %s. Please try again later.", op.action)
	case status >= 400:
		e.Category = CategoryClient
		e.Message = fmt.Sprintf("Failed to %s", op.action)
	default:
		e.Category = CategoryUnknown
		e.Message = fmt.Sprintf("Unexpected response while trying to %s", op.action)
	}
	return e
}

// responseDetails returns the decoded JSON body, the raw text body, or NoDetails.
func responseDetails(body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return NoDetails
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil && decoded != nil {
		return decoded
	}
	return string(body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// decodeError reports a 2xx response whose body could not be read as expected.
func decodeError(op operation, err error) *Error {
	return &Error{
		Category: CategoryUnknown,
		Message:  fmt.Sprintf("Unexpected response format while trying to %s", op.action),
		Details:  err.Error(),
	}
}
