package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeNotFound, "no such view"),
			expected: "[NOT_FOUND] no such view",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeStorageError, "upload failed", errors.New("network timeout")),
			expected: "[STORAGE_ERROR] upload failed: network timeout",
		},
		{
			name:     "formatted",
			err:      Newf(CodeInvalidInput, "bucket %d out of range", 7),
			expected: "[INVALID_INPUT] bucket 7 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeParseError, "decode failed", underlying)

	assert.Equal(t, underlying, err.Unwrap())
	assert.ErrorIs(t, err, underlying)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeDatabaseError, "error 1")
	err2 := New(CodeDatabaseError, "error 2")
	err3 := New(CodeStorageError, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
	assert.False(t, err1.Is(errors.New("plain")))
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("session: %w", New(CodeNotFound, "view right"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsInvalidInput(wrapped))
	assert.True(t, IsInvalidInput(Wrap(CodeInvalidInput, "bad axis", nil)))
}

func TestGetErrorCodeAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"app error", ErrEmptyTrace, CodeEmptyTrace, "trace contains no records"},
		{"wrapped app error", fmt.Errorf("ctx: %w", ErrTimeout), CodeTimeout, "operation timeout"},
		{"plain error", errors.New("plain"), CodeUnknown, "plain"},
		{"nil", nil, CodeUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.Equal(t, tt.message, GetErrorMessage(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{nil, http.StatusOK},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrParseError, http.StatusBadRequest},
		{ErrEmptyTrace, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrTimeout, http.StatusGatewayTimeout},
		{ErrStorageError, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(GetErrorCode(tt.err), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
