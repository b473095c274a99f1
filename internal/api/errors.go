package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response. The backend does not distinguish validation,
// authorization and server faults beyond the status code, so neither do we:
// Message carries the payload's optional "error" field and Body the raw bytes.
type Error struct {
	Op      string
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
}

func newError(op string, status int, body []byte) *Error {
	apiErr := &Error{Op: op, Status: status, Body: body}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = strings.TrimSpace(payload.Error)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(payload.Message)
		}
	}
	return apiErr
}

// Message returns the backend's human-readable message for err, or fallback
// when there is none (transport failures, empty payloads).
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsUnauthorized reports whether the backend answered 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsTokenRejected reports whether the backend rejected the bearer token of
// an authenticated request. The credential calls answer 401 for bad
// credentials, which says nothing about a stored token.
func IsTokenRejected(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return false
	}
	return apiErr.Op != "login" && apiErr.Op != "register"
}
