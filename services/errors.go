package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeEmbedding    ErrorType = "embedding"
	ErrorTypeGeneration   ErrorType = "generation"
	ErrorTypeIndex        ErrorType = "index"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error with the detail attached. The
// receiver is left untouched so package-level sentinels stay immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrDocumentNotFound   = NewDomainError(ErrorTypeNotFound, "document not found", nil)
	ErrChunkNotFound      = NewDomainError(ErrorTypeNotFound, "chunk not found", nil)
	ErrChatNotFound       = NewDomainError(ErrorTypeNotFound, "chat not found", nil)
	ErrMessageNotFound    = NewDomainError(ErrorTypeNotFound, "message not found", nil)
	ErrEvaluationNotFound = NewDomainError(ErrorTypeNotFound, "evaluation not found", nil)

	// Validation Errors
	ErrInvalidInput       = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyQuestion      = NewDomainError(ErrorTypeValidation, "question cannot be empty", nil)
	ErrEmptyDocument      = NewDomainError(ErrorTypeValidation, "document content cannot be empty", nil)
	ErrUnsupportedFile    = NewDomainError(ErrorTypeValidation, "unsupported file type", nil)
	ErrFileTooLarge       = NewDomainError(ErrorTypeValidation, "file exceeds the upload size limit", nil)
	ErrInvalidFeedback    = NewDomainError(ErrorTypeValidation, "invalid feedback label", nil)
	ErrInvalidLanguage    = NewDomainError(ErrorTypeValidation, "invalid language", nil)
	ErrQuestionRejected   = NewDomainError(ErrorTypeValidation, "question rejected by safety checks", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Permission Errors
	ErrForbidden    = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrChatMismatch = NewDomainError(ErrorTypeForbidden, "chat belongs to another user", nil)

	// Conflict Errors
	ErrDuplicateDocument = NewDomainError(ErrorTypeConflict, "document already exists", nil)
	ErrDuplicateFeedback = NewDomainError(ErrorTypeConflict, "feedback already recorded", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)
	ErrStorageFailed     = NewDomainError(ErrorTypeInternal, "object storage operation failed", nil)

	// Pipeline Errors
	ErrEmbeddingFailed  = NewDomainError(ErrorTypeEmbedding, "embedding model unavailable", nil)
	ErrGenerationFailed = NewDomainError(ErrorTypeGeneration, "generation model unavailable", nil)
	ErrIndexFailed      = NewDomainError(ErrorTypeIndex, "vector index operation failed", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeForbidden
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// IsEmbeddingError checks if an error is an embedding pipeline error
func IsEmbeddingError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeEmbedding
	}
	return false
}

// IsGenerationError checks if an error is a generation pipeline error
func IsGenerationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeGeneration
	}
	return false
}

// IsIndexError checks if an error is a vector index error
func IsIndexError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeIndex
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
