// Package errors provides structured error types for the typecast service.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
//
// The cast engine itself never fails; these errors come from the surfaces
// around it (type parsing, the catalog, snapshot storage, the APIs).
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryParse      ErrorCategory = "PARSE"
	ErrCategoryCatalog    ErrorCategory = "CATALOG"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidName        = "INVALID_NAME"
	CodeIncompatibleSchema = "INCOMPATIBLE_SCHEMA"

	// Parse codes
	CodeInvalidTypeString = "INVALID_TYPE_STRING"

	// Catalog codes
	CodeTypeNotFound    = "TYPE_NOT_FOUND"
	CodeTypeExists      = "TYPE_EXISTS"
	CodeTableNotFound   = "TABLE_NOT_FOUND"
	CodeVersionNotFound = "VERSION_NOT_FOUND"
	CodeCatalogBusy     = "CATALOG_BUSY"
	CodeCatalogNotEmpty = "CATALOG_NOT_EMPTY"
	CodeCorruptSnapshot = "CORRUPT_SNAPSHOT"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// TypecastError is the structured error type used throughout the service.
type TypecastError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *TypecastError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TypecastError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *TypecastError) Is(target error) bool {
	var t *TypecastError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new TypecastError.
func New(category ErrorCategory, code, message string) *TypecastError {
	return &TypecastError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new TypecastError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *TypecastError {
	return &TypecastError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *TypecastError) WithDetails(details map[string]interface{}) *TypecastError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var te *TypecastError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a TypecastError.
func GetCategory(err error) ErrorCategory {
	var te *TypecastError
	if errors.As(err, &te) {
		return te.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a TypecastError.
func GetCode(err error) string {
	var te *TypecastError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// GetDetails extracts the details of the first TypecastError in the chain.
func GetDetails(err error) map[string]interface{} {
	var te *TypecastError
	if errors.As(err, &te) {
		return te.Details
	}
	return nil
}

func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	case category == ErrCategoryCatalog && code == CodeCatalogBusy:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *TypecastError {
	return New(ErrCategoryValidation, code, message)
}

func NewParseError(message string, cause error) *TypecastError {
	return Wrap(ErrCategoryParse, CodeInvalidTypeString, message, cause)
}

func NewCatalogError(code, message string, cause error) *TypecastError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewStorageError(code, message string, cause error) *TypecastError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *TypecastError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
