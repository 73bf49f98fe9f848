package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-checkable error category exposed to API clients.
type Code string

const (
	// CodeInput marks malformed or unacceptable caller input (empty dataset,
	// oversized dataset, missing question, malformed session token).
	CodeInput Code = "input_error"
	// CodeState marks an operation that requires prior analysis state.
	CodeState Code = "state_error"
	// CodeUpstreamAuth marks an authentication failure at the model provider.
	CodeUpstreamAuth Code = "upstream_auth"
	// CodeUpstreamQuota marks quota or rate-limit exhaustion at the model
	// provider; callers should back off.
	CodeUpstreamQuota Code = "upstream_quota"
	// CodeUpstreamEmpty marks an empty or missing model response after retries.
	CodeUpstreamEmpty Code = "upstream_empty"
	// CodeValidation marks a model response that failed structural validation.
	CodeValidation Code = "validation_error"
	// CodeInternal is the fallback for everything else.
	CodeInternal Code = "internal_error"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis record.
	RedisNotFoundMessage = "record not found"
)

// AppError wraps an underlying error with an HTTP status, a stable code and a
// safe message. The wrapped error never reaches API responses.
type AppError struct {
	Err     error
	Status  int
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// New creates a new AppError with the provided information.
func New(err error, status int, code Code, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// Input builds a 400 input error.
func Input(message string) *AppError {
	return New(nil, http.StatusBadRequest, CodeInput, message)
}

// Inputf builds a 400 input error with a formatted message.
func Inputf(format string, args ...any) *AppError {
	return Input(fmt.Sprintf(format, args...))
}

// State builds a 400 missing-prior-state error.
func State(message string) *AppError {
	return New(nil, http.StatusBadRequest, CodeState, message)
}

// UpstreamAuth wraps a provider authentication failure.
func UpstreamAuth(err error) *AppError {
	return New(err, http.StatusUnauthorized, CodeUpstreamAuth, "model provider rejected credentials")
}

// UpstreamQuota wraps a provider quota or rate-limit failure.
func UpstreamQuota(err error) *AppError {
	return New(err, http.StatusTooManyRequests, CodeUpstreamQuota, "model provider quota or rate limit exceeded")
}

// UpstreamEmpty wraps an empty model response.
func UpstreamEmpty(err error) *AppError {
	return New(err, http.StatusBadGateway, CodeUpstreamEmpty, "model returned an empty response")
}

// Validation wraps a structurally invalid model response.
func Validation(err error, message string) *AppError {
	return New(err, http.StatusInternalServerError, CodeValidation, message)
}

// CodeOf extracts the stable code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var app *AppError
	if errors.As(err, &app) && app.Code != "" {
		return app.Code
	}
	return CodeInternal
}

// StatusOf extracts the HTTP status from an error chain, defaulting to 500.
func StatusOf(err error) int {
	var app *AppError
	if errors.As(err, &app) && app.Status != 0 {
		return app.Status
	}
	return http.StatusInternalServerError
}

// MessageOf extracts the safe user-facing message from an error chain.
func MessageOf(err error) string {
	var app *AppError
	if errors.As(err, &app) && app.Message != "" {
		return app.Message
	}
	return SystemErrorMessage
}
