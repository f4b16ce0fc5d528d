// Package errors provides custom error types for the autosave package
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred
type ErrorCode string

const (
	ErrCodeTransportFailure  ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
	ErrCodeCanceled          ErrorCode = "CANCELED"
	ErrCodeConfigFailure     ErrorCode = "CONFIG_FAILURE"
)

// Operation represents the type of autosave operation
type Operation string

const (
	OpSave      Operation = "save"
	OpFlush     Operation = "flush"
	OpRetry     Operation = "retry"
	OpTransport Operation = "transport"
	OpCompose   Operation = "compose"
	OpValidate  Operation = "validate"
	OpSelect    Operation = "select"
	OpMapKeys   Operation = "map_keys"
	OpJournal   Operation = "journal"
	OpUndo      Operation = "undo"
	OpRedo      Operation = "redo"
	OpClose     Operation = "close"
)

// SaveError represents an error that occurred during an autosave cycle
type SaveError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "manager", "transport")
	Component string

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Error code for the error type
	Code ErrorCode

	// Number of transport attempts made before this error was produced.
	// Only populated once a retry sequence is exhausted.
	Attempts int

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *SaveError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	if e.Attempts > 0 {
		msg += fmt.Sprintf(": failed after %d attempts", e.Attempts)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport-related SaveError
func NewTransportError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeTransportFailure,
		Op:        op,
		Component: "transport",
		Err:       cause,
		Retryable: true,
	}
}

// NewExhaustedError creates a transport SaveError for an exhausted retry
// sequence, recording the total attempt count.
func NewExhaustedError(op Operation, attempts int, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeTransportFailure,
		Op:        op,
		Component: "transport",
		Err:       cause,
		Attempts:  attempts,
		Retryable: false,
	}
}

// NewValidationError creates a new validation-related SaveError
func NewValidationError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeValidationFailure,
		Op:        op,
		Component: "validator",
		Err:       cause,
		Retryable: false,
	}
}

// NewCanceledError creates a SaveError for an explicitly aborted operation
func NewCanceledError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeCanceled,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// NewConfigError creates a SaveError for invalid configuration
func NewConfigError(op Operation, cause error) *SaveError {
	return &SaveError{
		Code:      ErrCodeConfigFailure,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// New creates a new SaveError
func New(op Operation, err error) *SaveError {
	return &SaveError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new SaveError with component information
func NewWithComponent(op Operation, component string, err error) *SaveError {
	return &SaveError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// NewRetryable creates a new retryable SaveError
func NewRetryable(op Operation, err error) *SaveError {
	return &SaveError{
		Op:        op,
		Err:       err,
		Retryable: true,
	}
}

// IsRetryable checks if an error is a retryable SaveError
func IsRetryable(err error) bool {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Retryable
	}
	return false
}

// IsCanceled checks if an error represents an explicit abort
func IsCanceled(err error) bool {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Code == ErrCodeCanceled
	}
	return false
}

// IsValidation checks if an error is a validation failure
func IsValidation(err error) bool {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Code == ErrCodeValidationFailure
	}
	return false
}

// CodeOf extracts the ErrorCode from an error chain, or "" if none
func CodeOf(err error) ErrorCode {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Code
	}
	return ""
}
