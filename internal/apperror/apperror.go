// Package apperror defines the domain error taxonomy shared by the valuation pipeline.
// Transport layers map these kinds to status codes; services never deal in HTTP.
package apperror

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrRateLimited          = errors.New("rate limited")
	ErrInventoryUnavailable = errors.New("inventory unavailable")
	ErrMarketFetch          = errors.New("market fetch failed")
	ErrPersistence          = errors.New("persistence failed")
	ErrNotification         = errors.New("notification failed")
)

// AppError carries a kind sentinel plus a human-readable message.
type AppError struct {
	Kind    error
	Message string
	Field   string // optional: input field at fault
	Err     error  // optional: underlying cause
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is matches the kind sentinel so errors.Is(err, ErrValidation) works through wrapping.
func (e *AppError) Is(target error) bool {
	return target == e.Kind
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// RateLimitError reports how long the caller must wait before retrying.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate_limited: please wait %ds before taking another snapshot", e.RetryAfterSeconds())
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds.
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

func Validation(field, message string) *AppError {
	return &AppError{Kind: ErrValidation, Message: message, Field: field}
}

func NotFound(resource, id string) *AppError {
	return &AppError{Kind: ErrNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

func RateLimited(wait time.Duration) *RateLimitError {
	return &RateLimitError{RetryAfter: wait}
}

func InventoryUnavailable(message string, err error) *AppError {
	return &AppError{Kind: ErrInventoryUnavailable, Message: message, Err: err}
}

func MarketFetch(message string, err error) *AppError {
	return &AppError{Kind: ErrMarketFetch, Message: message, Err: err}
}

func Persistence(message string, err error) *AppError {
	return &AppError{Kind: ErrPersistence, Message: message, Err: err}
}

func Notification(message string, err error) *AppError {
	return &AppError{Kind: ErrNotification, Message: message, Err: err}
}
