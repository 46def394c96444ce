package parser

import "errors"

var (
	// ErrInvalidFormat is returned when the input format is invalid.
	ErrInvalidFormat = errors.New("invalid input format")

	// ErrEmptyInput is returned when the input holds no trace records.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnsupportedFormat is returned when no parser handles the format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidRecord is returned in strict mode for a record with invalid fields.
	ErrInvalidRecord = errors.New("invalid trace record")
)
