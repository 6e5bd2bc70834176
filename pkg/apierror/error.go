package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"skinsignal-api/internal/apperror"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	RetryAfter int          `json:"retry_after,omitempty"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ToJSON converts the error to the {ok:false, error, code} envelope.
func (e *Error) ToJSON() []byte {
	response := map[string]interface{}{
		"ok":    false,
		"error": e.Message,
		"code":  e.Code,
	}

	if e.RetryAfter > 0 {
		response["retry_after"] = e.RetryAfter
	}
	if len(e.Details) > 0 {
		response["details"] = e.Details
	}

	data, _ := json.Marshal(response)
	return data
}

// FromError maps the domain taxonomy onto HTTP errors.
// Anything uncategorized becomes a generic 500 so raw messages never leak.
func FromError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var rl *apperror.RateLimitError
	if errors.As(err, &rl) {
		return RateLimited(rl.Error(), rl.RetryAfterSeconds())
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		e := ValidationError(err.Error())
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Field != "" {
			e.Details = []FieldError{{Field: appErr.Field, Message: appErr.Message}}
		}
		return e
	case errors.Is(err, apperror.ErrNotFound):
		return NotFound(err.Error())
	case errors.Is(err, apperror.ErrInventoryUnavailable):
		return BadGateway("INVENTORY_UNAVAILABLE", err.Error())
	case errors.Is(err, apperror.ErrPersistence):
		return InternalError("failed to persist data")
	default:
		return InternalError("")
	}
}

// ValidationError creates a 400 error with validation details.
func ValidationError(message string, details ...FieldError) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Details:    details,
	}
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// RateLimited creates a 429 Too Many Requests error.
func RateLimited(message string, retryAfter int) *Error {
	return &Error{
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMITED",
		Message:    message,
		RetryAfter: retryAfter,
	}
}

// BadGateway creates a 502 error for failing upstream collaborators.
func BadGateway(code, message string) *Error {
	return &Error{
		StatusCode: http.StatusBadGateway,
		Code:       code,
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return &Error{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    message,
	}
}
