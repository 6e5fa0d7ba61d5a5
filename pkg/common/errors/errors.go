package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the wakeflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed handle
	ErrClosed = errors.New("handle is closed")

	// ErrReceiverDropped indicates that every receiver of a channel is gone
	ErrReceiverDropped = errors.New("receiver dropped")

	// ErrSenderDropped indicates that the sender went away without delivering a value
	ErrSenderDropped = errors.New("sender dropped")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// SendError is returned by a failed send. It hands the rejected value back to
// the caller so it is never lost.
type SendError[T any] struct {
	Value T
	Cause error
}

// NewSendError creates a SendError carrying value.
func NewSendError[T any](value T, cause error) *SendError[T] {
	return &SendError[T]{Value: value, Cause: cause}
}

// Error implements the error interface.
func (e *SendError[T]) Error() string {
	return "send failed: " + e.Cause.Error()
}

// Unwrap returns the cause so errors.Is works against the sentinels.
func (e *SendError[T]) Unwrap() error {
	return e.Cause
}

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets the hint and returns the same instance for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps a failure of a named operation in a module.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches additional context and returns the same instance.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsDisconnected returns true if the error indicates that the peer side of a
// channel is gone and retrying the same operation cannot succeed
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrReceiverDropped) || errors.Is(err, ErrSenderDropped)
}
