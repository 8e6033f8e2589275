package domain

import (
	"errors"
	"fmt"
)

// Business error codes the client interprets. Any other code is surfaced
// verbatim to the caller.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNetworkError    = "NETWORK_ERROR"
)

// ErrNotConfigured indicates the API base URL is missing. No request can
// succeed, so callers surface it as a blocking condition rather than a toast.
var ErrNotConfigured = errors.New("api base url not configured")

// APIError is the normalized rejection shape every failed request resolves
// to: a business code, a human-readable message, and correlation ids.
type APIError struct {
	Code              string
	Message           string
	Status            int
	RequestID         string
	ResponseRequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnauthenticated reports whether err is an authentication failure.
func IsUnauthenticated(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == CodeUnauthenticated
}

// IsForbidden reports whether err is a feature-disabled rejection. Callers
// render a disabled state instead of redirecting.
func IsForbidden(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == CodeForbidden
}
