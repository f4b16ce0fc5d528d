package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSaveError_Error(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	tests := []struct {
		name     string
		err      *SaveError
		contains []string
	}{
		{
			name:     "with component and code",
			err:      NewTransportError(OpSave, cause),
			contains: []string{"save operation failed", "transport component", "TRANSPORT_FAILURE", "connection refused"},
		},
		{
			name:     "without component",
			err:      New(OpFlush, cause),
			contains: []string{"flush operation failed", "connection refused"},
		},
		{
			name:     "exhausted carries attempt count",
			err:      NewExhaustedError(OpRetry, 4, cause),
			contains: []string{"failed after 4 attempts", "TRANSPORT_FAILURE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("error message %q missing %q", msg, want)
				}
			}
		})
	}
}

func TestSaveError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewValidationError(OpValidate, cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewTransportError(OpSave, fmt.Errorf("x"))) {
		t.Error("transport errors should be retryable")
	}
	if IsRetryable(NewValidationError(OpValidate, fmt.Errorf("x"))) {
		t.Error("validation errors should not be retryable")
	}
	if IsRetryable(NewExhaustedError(OpRetry, 4, fmt.Errorf("x"))) {
		t.Error("exhausted errors should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestIsCanceled(t *testing.T) {
	canceled := NewCanceledError(OpSave, fmt.Errorf("operation aborted"))
	if !IsCanceled(canceled) {
		t.Error("expected IsCanceled to be true")
	}
	if IsCanceled(NewTransportError(OpSave, fmt.Errorf("x"))) {
		t.Error("transport error misclassified as canceled")
	}

	// Detection should work through wrapping.
	wrapped := fmt.Errorf("outer: %w", canceled)
	if !IsCanceled(wrapped) {
		t.Error("expected IsCanceled to see through wrapping")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewConfigError(OpCompose, fmt.Errorf("empty"))); got != ErrCodeConfigFailure {
		t.Errorf("CodeOf = %q, want %q", got, ErrCodeConfigFailure)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestWrapOpComponent_NilPassthrough(t *testing.T) {
	if WrapOpComponent(nil, OpSave, "manager") != nil {
		t.Error("wrapping nil should return nil")
	}
	err := WrapOpComponentCode(fmt.Errorf("x"), OpJournal, "journal", ErrCodeConfigFailure)
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatal("expected a SaveError")
	}
	if saveErr.Code != ErrCodeConfigFailure || saveErr.Component != "journal" {
		t.Errorf("unexpected wrap result: %+v", saveErr)
	}
}
