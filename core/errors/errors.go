// Package errors provides standardized error types and helpers for the spritekiln codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrSecurity indicates input rejected for security reasons
	ErrSecurity = errors.New("security violation")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// ValidationError represents an upload validation error with context
type ValidationError struct {
	Field   string // Field that failed validation (e.g., "size", "extension", "mime")
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// FormatError represents a parsing or deserialization error
type FormatError struct {
	Format  string // Format being parsed (e.g., "JSON", "XML", "selection.json")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// SecurityError represents input rejected by a security check
type SecurityError struct {
	Check   string // Check that rejected the input (e.g., "doctype", "entity", "script")
	Message string // Why the input was rejected
	Err     error  // Underlying error, if any
}

func (e *SecurityError) Error() string {
	if e.Check != "" {
		return fmt.Sprintf("security check %s rejected input: %s", e.Check, e.Message)
	}
	return fmt.Sprintf("security check rejected input: %s", e.Message)
}

func (e *SecurityError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSecurity
}

// SanitizationError represents a failure while producing sanitized output
type SanitizationError struct {
	Stage   string // Pipeline stage that failed (e.g., "serialize")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *SanitizationError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("sanitization failed at %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("sanitization failed: %s", e.Message)
}

func (e *SanitizationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInternal
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewFormat creates a FormatError
func NewFormat(format, message string) *FormatError {
	return &FormatError{
		Format:  format,
		Message: message,
	}
}

// NewSecurity creates a SecurityError
func NewSecurity(check, message string) *SecurityError {
	return &SecurityError{
		Check:   check,
		Message: message,
	}
}

// NewSanitization creates a SanitizationError
func NewSanitization(stage, message string) *SanitizationError {
	return &SanitizationError{
		Stage:   stage,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
