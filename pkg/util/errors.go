// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for controller failures
var (
	ErrNotConnected     = errors.New("target not connected")
	ErrTransport        = errors.New("remote command failed")
	ErrMissingCleanup   = errors.New("no cleanup registered for change")
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrFeatureNotActive = errors.New("feature not active")
	ErrReconcileFailed  = errors.New("reconciliation failed")
)

// TransportError wraps a failed remote command with its context.
type TransportError struct {
	Host    string
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote command %q on %s: %v", e.Command, e.Host, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error
func NewTransportError(host, command string, err error) *TransportError {
	return &TransportError{Host: host, Command: command, Err: err}
}

// CleanupError reports a dirty change whose inverse operation is unknown.
// This is a programmer error: every setup operation must register its
// inverse in the cleanup map before it can appear in the dirty record.
type CleanupError struct {
	Change string
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("dirty record names %q but no cleanup is registered for it", e.Change)
}

func (e *CleanupError) Unwrap() error {
	return ErrMissingCleanup
}

// ReconcileError wraps a failure during the self-healing reconcile pass.
// Reconcile failures are fatal: there is no further fallback layer, so the
// persisted record is left in place for a later retry.
type ReconcileError struct {
	Change string
	Err    error
}

func (e *ReconcileError) Error() string {
	if e.Change != "" {
		return fmt.Sprintf("reconcile %s: %v", e.Change, e.Err)
	}
	return fmt.Sprintf("reconcile: %v", e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	msg := "validation failed:"
	for _, m := range e.Errors {
		msg += "\n  - " + m
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
