package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Cache domain error codes
const (
	ErrCodeInvalidSearchParameter = "INVALID_SEARCH_PARAMETER"
	ErrCodeDimensionMismatch      = "DIMENSION_MISMATCH"
	ErrCodeOrchestrationFailure   = "ORCHESTRATION_FAILURE"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQueryEmbedding = NewDomainError(ErrCodeInvalidSearchParameter, "query embedding cannot be empty")
	ErrScopeNotFound       = NewDomainError(ErrCodeNotFound, "cache scope not found")
)

// NewInvalidSearchParameter reports a caller contract violation for one
// search parameter. Never retried, never recovered locally.
func NewInvalidSearchParameter(param, detail string) *DomainError {
	return NewDomainError(ErrCodeInvalidSearchParameter, fmt.Sprintf("invalid %s: %s", param, detail))
}

// NewDimensionMismatch reports that a query and a cached vector have
// different lengths. Both lengths are surfaced for diagnosis.
func NewDimensionMismatch(queryLen, recordLen int) *DomainError {
	return NewDomainError(ErrCodeDimensionMismatch,
		fmt.Sprintf("vector dimensions differ: query=%d record=%d", queryLen, recordLen))
}

// NewOrchestrationFailure wraps an unexpected workflow failure with the
// operation name and scope identifiers so callers can log and alert
// without re-deriving state.
func NewOrchestrationFailure(operation, orgID, chatbotConfigID string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeOrchestrationFailure,
		fmt.Sprintf("%s failed for org=%s chatbot_config=%s", operation, orgID, chatbotConfigID), err)
}

// IsDimensionMismatch reports whether err is a dimension mismatch error.
func IsDimensionMismatch(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == ErrCodeDimensionMismatch
	}
	return false
}

// IsInvalidSearchParameter reports whether err is a search parameter error.
func IsInvalidSearchParameter(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == ErrCodeInvalidSearchParameter
	}
	return false
}
