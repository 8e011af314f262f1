// Package errors provides a lightweight structured error type (LitBuilderError)
// for category-based classification and retry semantics across the CLI and
// the compile pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a litbuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryCompiler ErrorCategory = "compiler"
	CategoryGit      ErrorCategory = "git"
	CategoryNotify   ErrorCategory = "notify"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryStorage    ErrorCategory = "storage"

	// Runtime and infrastructure errors
	CategoryWatch    ErrorCategory = "watch"
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

// LitBuilderError is a structured error with category, retryability, and context
type LitBuilderError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for LitBuilderError
type ContextFields map[string]any

// Error implements the error interface
func (e *LitBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *LitBuilderError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *LitBuilderError) WithContext(key string, value any) *LitBuilderError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new LitBuilderError
func New(category ErrorCategory, severity ErrorSeverity, message string) *LitBuilderError {
	return &LitBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new LitBuilderError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *LitBuilderError {
	return &LitBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable LitBuilderError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *LitBuilderError {
	return &LitBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable LitBuilderError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *LitBuilderError {
	return &LitBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category, unwrapping as needed
func IsCategory(err error, category ErrorCategory) bool {
	var lbe *LitBuilderError
	if stderrors.As(err, &lbe) {
		return lbe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var lbe *LitBuilderError
	if stderrors.As(err, &lbe) {
		return lbe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a LitBuilderError
func GetCategory(err error) ErrorCategory {
	var lbe *LitBuilderError
	if stderrors.As(err, &lbe) {
		return lbe.Category
	}
	return CategoryInternal
}
