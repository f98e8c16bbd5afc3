package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels let callers match categories with errors.Is regardless of the
// message an AppError carries.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRateLimited    = errors.New("rate limited")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrInternal       = errors.New("internal error")
)

// AppError is an error with a client-facing code and message and the HTTP
// status it renders as. Err is for errors.Is/As and logs only.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing product, cart line or stored snapshot.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %q not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput reports a request the client must change before retrying.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// RateLimited reports a client that exceeded its request budget.
func RateLimited() *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: "too many requests",
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// ServiceUnavailable creates a 503 error. The wrapped cause is kept for logs
// but never rendered to clients.
func ServiceUnavailable(message string, cause error) *AppError {
	err := ErrServiceUnavail
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Internal hides err behind a generic 500 message.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrInternal, err),
	}
}

var sentinelStatus = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrRateLimited, http.StatusTooManyRequests},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
}

// HTTPStatus returns the status err renders as: an AppError's own status,
// then the first matching sentinel, then 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
