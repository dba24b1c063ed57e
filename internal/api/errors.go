// Package api provides an HTTP client for the BuzzHeavier REST API
// with automatic retry, bearer-token auth, and error classification.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for request failure classification.
// Use errors.Is(err, api.ErrNotFound) to check.
var (
	// ErrUnauthenticated is returned before any request is sent when an
	// operation requires a token and none is active.
	ErrUnauthenticated = errors.New("api: not authenticated")

	// ErrNetwork wraps transport-level failures (timeout, connection
	// reset, DNS) after retries are exhausted.
	ErrNetwork = errors.New("api: network failure")

	// ErrDecode wraps response bodies that do not match the expected schema.
	ErrDecode = errors.New("api: malformed response")

	ErrBadRequest   = errors.New("api: bad request")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrConflict     = errors.New("api: conflict")
	ErrThrottled    = errors.New("api: throttled")
	ErrServerError  = errors.New("api: server error")

	// ErrUnexpectedStatus covers any other non-2xx status, so every
	// *Error unwraps to a sentinel.
	ErrUnexpectedStatus = errors.New("api: unexpected status")
)

// ErrEmptyName is returned by operations that require a non-empty name
// (CreateDirectory, RenameDirectory, RenameFile) before any request is sent.
var ErrEmptyName = errors.New("api: name must not be empty")

// Error wraps a sentinel error with the HTTP status code and the raw
// response body for any non-2xx response from a well-formed request.
type Error struct {
	StatusCode int
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *Error) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Body)
	}

	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes; every other code maps to a
// sentinel, falling back to ErrUnexpectedStatus.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		return ErrUnexpectedStatus
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
