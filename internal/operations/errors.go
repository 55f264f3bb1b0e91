package operations

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// ErrorType classifies operation failures
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// OperationError is a step or run failure with its classification
type OperationError struct {
	Type      ErrorType              `json:"type"`
	Step      string                 `json:"step,omitempty"`
	Message   string                 `json:"message"`
	Cause     error                  `json:"cause,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
}

func (e *OperationError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Step != "" {
		prefix += " " + e.Step + ":"
	}
	if e.Cause == nil {
		return prefix + " " + e.Message
	}
	return prefix + " " + e.Message + ": " + e.Cause.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

func newOperationError(t ErrorType, step, message string, cause error) *OperationError {
	return &OperationError{Type: t, Step: step, Message: message, Cause: cause}
}

// NewValidationError reports a step whose inputs are not in place
func NewValidationError(step, message string) *OperationError {
	return newOperationError(ErrorTypeValidation, step, message, nil)
}

// NewDependencyError reports a step whose dependency did not complete
func NewDependencyError(step, dependsOn, message string) *OperationError {
	err := newOperationError(ErrorTypeDependency, step, message, nil)
	err.Details = map[string]interface{}{"depends_on": dependsOn}
	return err
}

// NewExecutionError wraps a step failure; retryable failures are attempted again
func NewExecutionError(step string, cause error, retryable bool) *OperationError {
	err := newOperationError(ErrorTypeExecution, step, "step execution failed", cause)
	err.Retryable = retryable
	return err
}

// NewTimeoutError reports a step that exceeded its deadline
func NewTimeoutError(step string, timeout string) *OperationError {
	err := newOperationError(ErrorTypeTimeout, step, "step exceeded timeout of "+timeout, context.DeadlineExceeded)
	err.Details = map[string]interface{}{"timeout": timeout}
	return err
}

// NewCancellationError reports a run cancelled before or during step
func NewCancellationError(step string) *OperationError {
	return newOperationError(ErrorTypeCancellation, step, "operation was cancelled", context.Canceled)
}

// NewFatalError reports a failure that stops the whole run
func NewFatalError(message string, cause error) *OperationError {
	return newOperationError(ErrorTypeFatal, "", message, cause)
}

// IsRetryable reports whether err is an operation error marked retryable
func IsRetryable(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Retryable
}

// GetErrorType returns the classification of err; unclassified errors count as execution failures
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// WrapError turns a step's error into an OperationError. Storage and export
// failures are retryable; bad input never is.
func WrapError(err error, step string, message string) *OperationError {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		return opErr
	}

	wrapped := newOperationError(ErrorTypeExecution, step, message, err)
	wrapped.Retryable = apperrors.IsType(err, apperrors.ErrTypeStorage) || apperrors.IsType(err, apperrors.ErrTypeExport)
	return wrapped
}
