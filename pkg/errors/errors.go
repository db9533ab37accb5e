package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application-level error with HTTP status code
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"-"`

	// Err is the underlying cause. It is never serialized.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
// A sub-kind matches its parent (invalid_passcode is an invalid_input).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return parentCode[e.Code] == t.Code
}

// Error codes
const (
	ErrCodeInvalidInput     = "invalid_input"
	ErrCodeInvalidPasscode  = "invalid_passcode"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeCryptoFailure    = "crypto_failure"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInternalError    = "internal_error"
)

var parentCode = map[string]string{
	ErrCodeInvalidPasscode: ErrCodeInvalidInput,
}

// Predefined errors. They double as errors.Is targets.
var (
	ErrInvalidInput = &AppError{
		Code:       ErrCodeInvalidInput,
		Message:    "Invalid input",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidPasscode = &AppError{
		Code:       ErrCodeInvalidPasscode,
		Message:    "Passcode does not meet policy",
		StatusCode: http.StatusBadRequest,
	}

	ErrAlreadyExists = &AppError{
		Code:       ErrCodeAlreadyExists,
		Message:    "Wallet already exists",
		StatusCode: http.StatusConflict,
	}

	ErrStoreUnavailable = &AppError{
		Code:       ErrCodeStoreUnavailable,
		Message:    "Store unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}

	ErrCryptoFailure = &AppError{
		Code:       ErrCodeCryptoFailure,
		Message:    "Key operation failed",
		StatusCode: http.StatusInternalServerError,
	}

	ErrUnauthorized = &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrNotFound = &AppError{
		Code:       ErrCodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       ErrCodeBadRequest,
		Message:    "Invalid request parameters",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalError = &AppError{
		Code:       ErrCodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithDetail creates a new AppError with additional detail
func NewWithDetail(code, message, detail string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Detail:     detail,
		StatusCode: statusCode,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(detail string) *AppError {
	return withCause(ErrInvalidInput, detail, nil)
}

// InvalidPasscode creates an invalid passcode error
func InvalidPasscode(detail string) *AppError {
	return withCause(ErrInvalidPasscode, detail, nil)
}

// AlreadyExists creates an already exists error
func AlreadyExists() *AppError {
	return withCause(ErrAlreadyExists, "", nil)
}

// StoreUnavailable wraps a storage failure
func StoreUnavailable(err error) *AppError {
	return withCause(ErrStoreUnavailable, "", err)
}

// CryptoFailure wraps a key generation or encryption failure
func CryptoFailure(err error) *AppError {
	return withCause(ErrCryptoFailure, "", err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func withCause(base *AppError, detail string, err error) *AppError {
	return &AppError{
		Code:       base.Code,
		Message:    base.Message,
		Detail:     detail,
		StatusCode: base.StatusCode,
		Err:        err,
	}
}
