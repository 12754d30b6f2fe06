// Package apierrors defines the domain error taxonomy. Each error kind
// self-describes its API status and machine-readable code so the single
// dispatch point in handler.go can render any failure uniformly.
package apierrors

import (
	"fmt"
	"strings"
	"time"

	"github.com/flashdeckhq/flashdeck/internal/response"
)

// APIError is the self-describing contract every domain error satisfies.
type APIError interface {
	error
	APIStatus() response.Status
	ErrorCode() string
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) APIStatus() response.Status { return response.StatusNotFound }

func (e *NotFoundError) ErrorCode() string {
	return codeFor(e.Resource, "NOT_FOUND")
}

type AccessDeniedError struct {
	Resource string
	Reason   string
}

func (e *AccessDeniedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("access to %s denied: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("access to %s denied", e.Resource)
}

func (e *AccessDeniedError) APIStatus() response.Status { return response.StatusForbidden }

func (e *AccessDeniedError) ErrorCode() string {
	return codeFor(e.Resource, "ACCESS_DENIED")
}

// ValidationError carries field-level messages. The dispatcher matches it
// before the generic APIError contract so the field map is never lost.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

func (e *ValidationError) APIStatus() response.Status { return response.StatusValidationError }

func (e *ValidationError) ErrorCode() string { return "VALIDATION_FAILED" }

// NewValidationError is a shorthand for a single-field failure.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

type InvalidOperationError struct {
	Operation string
	Reasons   map[string][]string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %q", e.Operation)
}

func (e *InvalidOperationError) APIStatus() response.Status { return response.StatusBadRequest }

func (e *InvalidOperationError) ErrorCode() string { return "INVALID_OPERATION" }

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) APIStatus() response.Status { return response.StatusTooManyRequests }

func (e *RateLimitError) ErrorCode() string { return "RATE_LIMIT_EXCEEDED" }

type CreationFailedError struct {
	Resource string
	Err      error
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("failed to create %s: %v", e.Resource, e.Err)
}

func (e *CreationFailedError) Unwrap() error { return e.Err }

func (e *CreationFailedError) APIStatus() response.Status { return response.StatusBadRequest }

func (e *CreationFailedError) ErrorCode() string {
	return codeFor(e.Resource, "CREATION_FAILED")
}

type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "invalid or missing API token"
}

func (e *UnauthorizedError) APIStatus() response.Status { return response.StatusUnauthorized }

func (e *UnauthorizedError) ErrorCode() string { return "INVALID_API_TOKEN" }

// ServiceError wraps an internal numeric code. Codes with a known HTTP
// meaning map to their status; anything else falls back to the generic
// error status (HTTP 400).
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) APIStatus() response.Status {
	switch e.Code {
	case 401:
		return response.StatusUnauthorized
	case 403:
		return response.StatusForbidden
	case 404:
		return response.StatusNotFound
	case 422:
		return response.StatusValidationError
	case 429:
		return response.StatusTooManyRequests
	case 500, 502, 503:
		return response.StatusServerError
	default:
		return response.StatusError
	}
}

func (e *ServiceError) ErrorCode() string { return "SERVICE_ERROR" }

func codeFor(resource, suffix string) string {
	r := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(resource), " ", "_"))
	if r == "" {
		r = "RESOURCE"
	}
	return r + "_" + suffix
}
