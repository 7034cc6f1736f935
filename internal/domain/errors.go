package domain

import (
	"errors"
	"fmt"
)

// Reasons a whole upload is rejected.
var (
	ErrMissingColumns      = errors.New("missing required columns")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
	ErrUnparseableTable    = errors.New("unparseable table")
	ErrEmptyUpload         = errors.New("empty upload")
	ErrInvalidInput        = errors.New("invalid input")
)

// ErrInsufficientData is returned by stages that need more rows than they were given.
// Callers treat it as an empty or neutral result, not a failure.
var ErrInsufficientData = errors.New("insufficient data")

// ValidationError rejects an upload wholesale.
type ValidationError struct {
	Reason error
	Detail string
}

// NewValidationError builds a ValidationError for one of the reason sentinels.
func NewValidationError(reason error, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
