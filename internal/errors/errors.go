// Package errors provides a structured error type (ScoutError) with
// category-based classification, used by the CLI and HTTP adapters to map
// failures to exit codes and status codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies a ScoutError for presentation and routing.
type ErrorCategory string

const (
	// User-facing input and lookup errors
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryConflict   ErrorCategory = "conflict"

	// Configuration and access errors
	CategoryConfig ErrorCategory = "config"
	CategoryAuth   ErrorCategory = "auth"

	// External system errors
	CategoryNetwork    ErrorCategory = "network"
	CategoryGeneration ErrorCategory = "generation"

	// Persistence and infrastructure errors
	CategoryStorage  ErrorCategory = "storage"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ScoutError is a structured error with category, retryability, and context
type ScoutError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ScoutError
type ContextFields map[string]any

// Error implements the error interface
func (e *ScoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ScoutError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ScoutError) WithContext(key string, value any) *ScoutError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ScoutError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ScoutError {
	return &ScoutError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new ScoutError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ScoutError {
	return &ScoutError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable ScoutError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *ScoutError {
	return &ScoutError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// As extracts a ScoutError from anywhere in err's chain.
func As(err error) (*ScoutError, bool) {
	var se *ScoutError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := As(err); ok {
		return se.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if se, ok := As(err); ok {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if se, ok := As(err); ok {
		return se.Category
	}
	return CategoryInternal
}
