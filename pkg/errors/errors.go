// Package errors defines coded application errors shared by the CLI and HTTP host.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the application.
const (
	CodeUnknown       = "UNKNOWN_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeParseError    = "PARSE_ERROR"
	CodeEmptyTrace    = "EMPTY_TRACE"
	CodeNotFound      = "NOT_FOUND"
	CodeConfigError   = "CONFIG_ERROR"
	CodeStorageError  = "STORAGE_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeTimeout       = "TIMEOUT_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
	ErrParseError    = New(CodeParseError, "parse error")
	ErrEmptyTrace    = New(CodeEmptyTrace, "trace contains no records")
	ErrNotFound      = New(CodeNotFound, "resource not found")
	ErrConfigError   = New(CodeConfigError, "configuration error")
	ErrStorageError  = New(CodeStorageError, "storage error")
	ErrDatabaseError = New(CodeDatabaseError, "database error")
	ErrTimeout       = New(CodeTimeout, "operation timeout")
)

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if the error is an invalid-input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// HTTPStatus maps an error to the status code the HTTP host responds with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetErrorCode(err) {
	case CodeInvalidInput, CodeParseError, CodeEmptyTrace:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
