package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const codeBudgetRejected = "budget_rejected"

// APIError represents a structured error response from the fundledger API.
// Detail carries the threshold decision on budget_rejected responses.
type APIError struct {
	StatusCode int             `json:"-"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	RequestID  string          `json:"request_id,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("fundledger: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("fundledger: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func asAPIError(err error) (*APIError, bool) {
	var e *APIError
	ok := errors.As(err, &e)
	return e, ok
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409 response (version conflict,
// duplicate budget, archived budget).
func IsConflict(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusConflict
}

// IsRejected reports whether err is a 422 threshold refusal.
func IsRejected(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusUnprocessableEntity && e.Code == codeBudgetRejected
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusTooManyRequests
}

// RejectionDecision extracts the threshold decision from a budget_rejected
// error. The second return is false when err is not a rejection or carries
// no decision detail.
func RejectionDecision(err error) (*Decision, bool) {
	e, ok := asAPIError(err)
	if !ok || e.Code != codeBudgetRejected || len(e.Detail) == 0 {
		return nil, false
	}

	var d Decision
	if jsonErr := json.Unmarshal(e.Detail, &d); jsonErr != nil {
		return nil, false
	}
	return &d, true
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
