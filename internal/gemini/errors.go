package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnavailable is matched by API errors worth retrying: timeouts, rate
// limits and server-side failures.
var ErrUnavailable = errors.New("gemini: service unavailable")

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Status     string // e.g. INVALID_ARGUMENT, PERMISSION_DENIED
	Message    string
	Reason     string // e.g. API_KEY_INVALID, when reported
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Status != "" {
		return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("gemini: %d: %s", e.StatusCode, msg)
}

// Unwrap lets errors.Is(err, ErrUnavailable) match retryable statuses.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= 500:
		return ErrUnavailable
	}
	return nil
}

// TransportError wraps a failure to reach the API.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "gemini: " + e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a successful answer whose body is not the expected JSON.
// It is never retried.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return "gemini: " + e.Op + ": " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

func parseAPIError(code int, raw []byte) *APIError {
	e := &APIError{StatusCode: code}
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
			Details []struct {
				Reason string `json:"reason"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		e.Message = body.Error.Message
		e.Status = body.Error.Status
		for _, d := range body.Error.Details {
			if d.Reason != "" {
				e.Reason = d.Reason
				break
			}
		}
		return e
	}
	e.Message = strings.TrimSpace(string(raw))
	return e
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, ErrUnavailable)
}

// IsAuth reports whether err means the credential was rejected.
func IsAuth(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return ae.Reason == "API_KEY_INVALID" || strings.Contains(strings.ToLower(ae.Message), "api key")
	}
	return false
}
