package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Category classifies every failure surfaced by the client.
type Category string

const (
	// CategoryAuth means the session is missing, expired, or rejected.
	CategoryAuth Category = "auth"
	// CategoryClient means the request itself was invalid or not permitted.
	CategoryClient Category = "client"
	// CategoryServer means the backend failed (HTTP 5xx).
	CategoryServer Category = "server"
	// CategoryNetwork means no usable response arrived (connectivity or timeout).
	CategoryNetwork Category = "network"
	// CategoryCancelled means the work was abandoned by the caller or superseded.
	CategoryCancelled Category = "cancelled"
	// CategoryUnknown covers anything that does not fit the categories above.
	CategoryUnknown Category = "unknown"
)

// NoDetails is the Details value used when the backend sent no error body.
const NoDetails = "No additional details"

// IsRetryable reports whether errors in this category may succeed on retry.
func (c Category) IsRetryable() bool {
	return c == CategoryNetwork || c == CategoryServer
}

// Suggestion returns a human-readable hint for resolving errors in this category.
func (c Category) Suggestion() string {
	switch c {
	case CategoryAuth:
		return "Run 'rp auth login' to start a new session"
	case CategoryClient:
		return "Check the input values and your permissions"
	case CategoryServer:
		return "The server encountered an error; try again later"
	case CategoryNetwork:
		return "Check network connectivity and retry"
	default:
		return ""
	}
}

// Error is the single error shape returned by every resource endpoint.
// Transport and decoding errors are classified into an Error before they
// leave the client; the underlying error is kept only as text in Details.
type Error struct {
	Message    string   `json:"message"`
	Category   Category `json:"category"`
	StatusCode int      `json:"status_code,omitempty"`
	Details    any      `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Category, e.StatusCode)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Category)
}

// MarshalJSON adds the retry hint so structured output can branch on it.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(struct {
		*alias
		Retryable  bool   `json:"retryable"`
		Suggestion string `json:"suggestion,omitempty"`
	}{(*alias)(e), e.Category.IsRetryable(), e.Category.Suggestion()})
}

func newError(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// clientErrorf builds a local precondition failure. These never reach the network.
func clientErrorf(format string, args ...any) *Error {
	return newError(CategoryClient, fmt.Sprintf(format, args...))
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CategoryOf returns the category of err, or CategoryUnknown for errors that
// did not come from this package. A nil error has no category.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	if e, ok := AsError(err); ok {
		return e.Category
	}
	return CategoryUnknown
}

// IsAuthError reports whether err requires the user to log in again.
func IsAuthError(err error) bool {
	return CategoryOf(err) == CategoryAuth
}

// IsCancelled reports whether err represents superseded or abandoned work.
func IsCancelled(err error) bool {
	return CategoryOf(err) == CategoryCancelled
}

// IsNotFoundError reports whether err is a 404 from the backend.
func IsNotFoundError(err error) bool {
	e, ok := AsError(err)
	return ok && e.StatusCode == 404
}
